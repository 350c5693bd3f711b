// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"slices"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/internal/bitm"
)

// dataEntry is what a dataMap stores.
type dataEntry[T any] struct {
	data T
	id   int
}

// dataMap stores data of type D with identifiers
// of type I.
// Identifiers are reused after removal.
type dataMap[I ~int, D any] struct {
	ids   []int
	idMap bitm.Bitm[uint32]
	data  []dataEntry[D]
}

// insert inserts data into m.
// It returns an I value that identifies data in m.
func (m *dataMap[I, D]) insert(data D) I {
	if m.idMap.Rem() == 0 {
		n := max(1, m.idMap.Len()/32)
		m.ids = append(m.ids, make([]int, n*32)...)
		m.idMap.Grow(n)
	}
	idx, ok := m.idMap.Search()
	if !ok {
		panic("unexpected failure from bitm.Bitm.Search")
	}
	m.idMap.Set(idx)
	m.ids[idx] = len(m.data)
	m.data = append(m.data, dataEntry[D]{data, idx})
	return I(idx)
}

// remove removes the data identified by id.
// It returns the removed data.
// id must belong to m.
func (m *dataMap[I, D]) remove(id I) D {
	if !m.has(id) {
		panic("dataMap.remove: invalid id")
	}
	d := m.ids[id]
	data := m.data[d].data
	last := len(m.data) - 1
	if d < last {
		m.data[d] = m.data[last]
		m.ids[m.data[d].id] = d
	}
	m.ids[id] = -1
	m.idMap.Unset(int(id))
	m.data[last] = dataEntry[D]{}
	m.data = m.data[:last]
	return data
}

// has reports whether id belongs to m.
func (m *dataMap[I, _]) has(id I) bool {
	return id >= 0 && int(id) < m.idMap.Len() && m.idMap.IsSet(int(id))
}

// get returns a pointer to the data identified by id.
// id must belong to m.
func (m *dataMap[I, D]) get(id I) *D { return &m.data[m.ids[id]].data }

// len returns the number of elements in m.
func (m *dataMap[_, _]) len() int { return len(m.data) }

// Handle identifies a resource owned by an Arena.
type Handle int

// arenaEntry pairs a resource with its creation
// sequence number.
type arenaEntry struct {
	d   driver.Destroyer
	seq uint64
}

// Arena owns GPU resources and destroys them in reverse
// creation order.
// The zero value is an empty arena ready for use.
type Arena struct {
	m   dataMap[Handle, arenaEntry]
	seq uint64
}

// Add adds d to a.
// Resources added later are destroyed first.
func (a *Arena) Add(d driver.Destroyer) Handle {
	a.seq++
	return a.m.insert(arenaEntry{d, a.seq})
}

// Get returns the resource identified by h.
func (a *Arena) Get(h Handle) driver.Destroyer { return a.m.get(h).d }

// Free destroys the resource identified by h and
// removes it from a.
func (a *Arena) Free(h Handle) {
	a.m.remove(h).d.Destroy()
}

// Len returns the number of resources in a.
func (a *Arena) Len() int { return a.m.len() }

// Destroy destroys every resource in a, most recently
// added first, and empties a.
func (a *Arena) Destroy() {
	es := make([]arenaEntry, 0, a.m.len())
	for _, x := range a.m.data {
		es = append(es, x.data)
	}
	slices.SortFunc(es, func(x, y arenaEntry) int {
		switch {
		case x.seq > y.seq:
			return -1
		case x.seq < y.seq:
			return 1
		}
		return 0
	})
	for _, x := range es {
		x.d.Destroy()
	}
	*a = Arena{}
}
