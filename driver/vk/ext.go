// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"slices"

	vk "github.com/goki/vulkan"
)

const (
	// Instance extensions.
	extSurface = iota
	// Device extensions.
	extSwapchain

	extN
)

var extNames = [extN]string{
	extSurface:   "VK_KHR_surface",
	extSwapchain: "VK_KHR_swapchain",
}

// name returns the extension name.
func extName(ext int) string { return extNames[ext] }

// instanceExts returns a list containing the names of all
// instance extensions advertised by the implementation.
func instanceExts() ([]string, error) {
	var n uint32
	if err := checkResult(vk.EnumerateInstanceExtensionProperties("", &n, nil)); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	props := make([]vk.ExtensionProperties, n)
	if err := checkResult(vk.EnumerateInstanceExtensionProperties("", &n, props)); err != nil {
		return nil, err
	}
	return extStrings(props[:n]), nil
}

// deviceExts returns a list containing the names of all
// device extensions advertised by pdev.
func deviceExts(pdev vk.PhysicalDevice) ([]string, error) {
	var n uint32
	if err := checkResult(vk.EnumerateDeviceExtensionProperties(pdev, "", &n, nil)); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	props := make([]vk.ExtensionProperties, n)
	if err := checkResult(vk.EnumerateDeviceExtensionProperties(pdev, "", &n, props)); err != nil {
		return nil, err
	}
	return extStrings(props[:n]), nil
}

func extStrings(props []vk.ExtensionProperties) []string {
	s := make([]string, len(props))
	for i := range props {
		props[i].Deref()
		s[i] = vk.ToString(props[i].ExtensionName[:])
	}
	return s
}

// selectExts returns exts as NUL-terminated strings.
// exts must be a subset of from, otherwise
// errNoExtension is returned.
func selectExts(exts, from []string) ([]string, error) {
	names := make([]string, 0, len(exts))
	for _, e := range exts {
		if !slices.Contains(from, e) {
			return nil, errNoExtension
		}
		names = append(names, cstr(e))
	}
	return names, nil
}

// cstr returns s with a terminating NUL.
func cstr(s string) string {
	if len(s) > 0 && s[len(s)-1] == 0 {
		return s
	}
	return s + "\x00"
}
