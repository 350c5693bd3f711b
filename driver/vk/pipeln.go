// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"errors"

	vk "github.com/goki/vulkan"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// pipeline implements driver.Pipeline.
type pipeline struct {
	d      *Driver
	pl     vk.Pipeline
	bindPt vk.PipelineBindPoint
}

// NewPipeline creates a new pipeline.
func (d *Driver) NewPipeline(state any) (driver.Pipeline, error) {
	switch t := state.(type) {
	case *driver.GraphState:
		return d.newGraphics(t)
	case *driver.CompState:
		return d.newCompute(t)
	}
	return nil, errors.New("vk: unknown pipeline state type")
}

// layoutOf returns the pipeline layout of desc.
// If desc is nil, an empty layout is created and
// must be destroyed by calling free.
func (d *Driver) layoutOf(desc driver.DescTable) (layout vk.PipelineLayout, free func(), err error) {
	if desc != nil {
		return desc.(*descTable).layout, func() {}, nil
	}
	t, err := d.NewDescTable(nil)
	if err != nil {
		return
	}
	return t.(*descTable).layout, t.Destroy, nil
}

// newGraphics creates a new graphics pipeline.
// Viewport and scissor are dynamic states.
func (d *Driver) newGraphics(gs *driver.GraphState) (driver.Pipeline, error) {
	if gs.Pass == nil {
		return nil, errors.New("vk: graphics pipeline has no render pass")
	}
	pass := gs.Pass.(*renderPass)
	if gs.Subpass < 0 || gs.Subpass >= len(pass.ncolor) {
		return nil, errors.New("vk: subpass index out of range")
	}
	layout, free, err := d.layoutOf(gs.Desc)
	if err != nil {
		return nil, err
	}
	defer free()

	stages := []vk.PipelineShaderStageCreateInfo{{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageVertexBit,
		Module: gs.VertFunc.Code.(*shaderCode).mod,
		PName:  cstr(gs.VertFunc.Name),
	}}
	if gs.FragFunc.Code != nil {
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: gs.FragFunc.Code.(*shaderCode).mod,
			PName:  cstr(gs.FragFunc.Name),
		})
	}

	binds := make([]vk.VertexInputBindingDescription, len(gs.Input))
	attrs := make([]vk.VertexInputAttributeDescription, len(gs.Input))
	for i, in := range gs.Input {
		binds[i] = vk.VertexInputBindingDescription{
			Binding:   uint32(i),
			Stride:    uint32(in.Stride),
			InputRate: vk.VertexInputRateVertex,
		}
		attrs[i] = vk.VertexInputAttributeDescription{
			Location: uint32(in.Nr),
			Binding:  uint32(i),
			Format:   convVertexFmt(in.Format),
		}
	}
	input := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(binds)),
		PVertexBindingDescriptions:      binds,
		VertexAttributeDescriptionCount: uint32(len(attrs)),
		PVertexAttributeDescriptions:    attrs,
	}
	ia := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: convTopology(gs.Topology),
	}
	vp := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	front := vk.FrontFaceCounterClockwise
	if gs.Clockwise {
		front = vk.FrontFaceClockwise
	}
	rz := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    convCullMode(gs.Cull),
		FrontFace:   front,
		LineWidth:   1,
	}
	ms := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}
	ds := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vkBool(gs.DepthTest),
		DepthWriteEnable: vkBool(gs.DepthWrite),
		DepthCompareOp:   convCmpFunc(gs.DepthCmp),
		MaxDepthBounds:   1,
	}
	blend := make([]vk.PipelineColorBlendAttachmentState, pass.ncolor[gs.Subpass])
	for i := range blend {
		blend[i] = vk.PipelineColorBlendAttachmentState{
			BlendEnable:         vkBool(gs.Blend),
			SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
			DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
			ColorBlendOp:        vk.BlendOpAdd,
			SrcAlphaBlendFactor: vk.BlendFactorOne,
			DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
			AlphaBlendOp:        vk.BlendOpAdd,
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
		}
	}
	cb := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: uint32(len(blend)),
		PAttachments:    blend,
	}
	dyn := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dy := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dyn)),
		PDynamicStates:    dyn,
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &input,
		PInputAssemblyState: &ia,
		PViewportState:      &vp,
		PRasterizationState: &rz,
		PMultisampleState:   &ms,
		PDepthStencilState:  &ds,
		PColorBlendState:    &cb,
		PDynamicState:       &dy,
		Layout:              layout,
		RenderPass:          pass.pass,
		Subpass:             uint32(gs.Subpass),
		BasePipelineIndex:   -1,
	}
	var cache vk.PipelineCache
	pl := make([]vk.Pipeline, 1)
	if err := checkResult(vk.CreateGraphicsPipelines(d.dev, cache, 1, []vk.GraphicsPipelineCreateInfo{info}, nil, pl)); err != nil {
		return nil, err
	}
	return &pipeline{d: d, pl: pl[0], bindPt: vk.PipelineBindPointGraphics}, nil
}

// newCompute creates a new compute pipeline.
func (d *Driver) newCompute(cs *driver.CompState) (driver.Pipeline, error) {
	if cs.Func.Code == nil {
		return nil, errors.New("vk: compute pipeline has no shader")
	}
	layout, free, err := d.layoutOf(cs.Desc)
	if err != nil {
		return nil, err
	}
	defer free()
	info := vk.ComputePipelineCreateInfo{
		SType: vk.StructureTypeComputePipelineCreateInfo,
		Stage: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageComputeBit,
			Module: cs.Func.Code.(*shaderCode).mod,
			PName:  cstr(cs.Func.Name),
		},
		Layout:            layout,
		BasePipelineIndex: -1,
	}
	var cache vk.PipelineCache
	pl := make([]vk.Pipeline, 1)
	if err := checkResult(vk.CreateComputePipelines(d.dev, cache, 1, []vk.ComputePipelineCreateInfo{info}, nil, pl)); err != nil {
		return nil, err
	}
	return &pipeline{d: d, pl: pl[0], bindPt: vk.PipelineBindPointCompute}, nil
}

// Destroy destroys the pipeline.
func (p *pipeline) Destroy() {
	if p == nil {
		return
	}
	if p.d != nil {
		vk.DestroyPipeline(p.d.dev, p.pl, nil)
	}
	*p = pipeline{}
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
