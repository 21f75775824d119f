package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslTextureDimMap maps WGSL sampled texture base names to their view dimension
var wgslTextureDimMap = map[string]wgpu.TextureViewDimension{
	"texture_1d":               wgpu.TextureViewDimension1D,
	"texture_2d":               wgpu.TextureViewDimension2D,
	"texture_2d_array":         wgpu.TextureViewDimension2DArray,
	"texture_3d":               wgpu.TextureViewDimension3D,
	"texture_cube":             wgpu.TextureViewDimensionCube,
	"texture_cube_array":       wgpu.TextureViewDimensionCubeArray,
	"texture_depth_2d":         wgpu.TextureViewDimension2D,
	"texture_depth_2d_array":   wgpu.TextureViewDimension2DArray,
	"texture_depth_cube":       wgpu.TextureViewDimensionCube,
	"texture_depth_cube_array": wgpu.TextureViewDimensionCubeArray,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniform;
	// or handle types: @group(2) @binding(0) var diffuseTexture: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseDeclarations extracts all @group(N) @binding(M) resource declarations from WGSL
// source, sorted by group and then binding. Buffer declarations carry the resolved byte
// size of their type.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []Declaration: the declarations in (group, binding) order
func parseDeclarations(source string) []Declaration {
	cleaned := stripComments(source)
	structSizes := computeStructSizes(parseStructBlocks(cleaned))

	matches := bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1)
	decls := make([]Declaration, 0, len(matches))
	for _, match := range matches {
		group, _ := strconv.ParseUint(match[1], 10, 32)
		binding, _ := strconv.ParseUint(match[2], 10, 32)

		decl := Declaration{
			Group:    uint32(group),
			Binding:  uint32(binding),
			Name:     strings.TrimSpace(match[4]),
			TypeName: strings.TrimSpace(match[5]),
		}
		classifyDeclaration(&decl, strings.TrimSpace(match[3]))

		if decl.Kind.IsBuffer() {
			if layout, ok := resolveTypeLayout(decl.TypeName, structSizes); ok {
				decl.MinSize = layout.size
			}
		}
		decls = append(decls, decl)
	}

	sort.Slice(decls, func(i, j int) bool {
		if decls[i].Group != decls[j].Group {
			return decls[i].Group < decls[j].Group
		}
		return decls[i].Binding < decls[j].Binding
	})
	return decls
}

// parseEntryPoint extracts the entry point function name for the given stage
// from WGSL source. Returns an empty string if no matching entry point annotation is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - stage: wgpu.ShaderStageVertex or wgpu.ShaderStageFragment
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, stage wgpu.ShaderStage) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch stage {
	case wgpu.ShaderStageVertex:
		re = vertexEntryRegex
	case wgpu.ShaderStageFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

// parseStructFields parses the body of a struct block into individual fields.
//
// Parameters:
//   - body: the content between { and } of a struct declaration
//
// Returns:
//   - []parsedField: all fields found in the struct body
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		fields = append(fields, parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			isBuiltin: builtinRegex.MatchString(line),
		})
	}
	return fields
}
