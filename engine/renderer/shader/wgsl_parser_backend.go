package shader

import (
	"strconv"
	"strings"
)

// Scalar layouts. bool is only host-shareable through u32 but keeps its 4 byte layout.
var wgslScalarSize = map[string]uint64{
	"f32": 4, "i32": 4, "u32": 4, "bool": 4, "f16": 2,
}

// wgslShorthandScalar maps the suffix of vec3f, mat4x4f and friends to the scalar type.
var wgslShorthandScalar = map[byte]string{
	'f': "f32", 'i': "i32", 'u': "u32", 'h': "f16",
}

func alignUp(value, alignment uint64) uint64 {
	if alignment <= 1 {
		return value
	}
	return (value + alignment - 1) / alignment * alignment
}

// vectorLayout returns the layout of an n component vector of the given scalar.
// vec3 aligns like vec4.
func vectorLayout(n int, scalar string) (wgslTypeLayout, bool) {
	s, ok := wgslScalarSize[scalar]
	if !ok || n < 2 || n > 4 {
		return wgslTypeLayout{}, false
	}
	align := s * 2
	if n > 2 {
		align = s * 4
	}
	return wgslTypeLayout{size: s * uint64(n), align: align}, true
}

// primitiveLayout resolves scalars, vectors, matrices and atomics in both the generic
// (vec3<f32>) and shorthand (vec3f) spellings.
func primitiveLayout(typeName string) (wgslTypeLayout, bool) {
	if s, ok := wgslScalarSize[typeName]; ok {
		return wgslTypeLayout{size: s, align: s}, true
	}

	base, param := splitTypeParams(typeName)
	if param == "" && len(base) > 1 {
		// shorthand: vec3f, mat4x4f
		if scalar, ok := wgslShorthandScalar[base[len(base)-1]]; ok && (strings.HasPrefix(base, "vec") || strings.HasPrefix(base, "mat")) {
			base, param = base[:len(base)-1], scalar
		}
	}

	switch {
	case base == "atomic":
		if param == "u32" || param == "i32" {
			return wgslTypeLayout{size: 4, align: 4}, true
		}
	case len(base) == 4 && strings.HasPrefix(base, "vec"):
		return vectorLayout(int(base[3]-'0'), param)
	case len(base) == 6 && strings.HasPrefix(base, "mat") && base[4] == 'x':
		cols, rows := int(base[3]-'0'), int(base[5]-'0')
		column, ok := vectorLayout(rows, param)
		if !ok || cols < 2 || cols > 4 {
			return wgslTypeLayout{}, false
		}
		stride := alignUp(column.size, column.align)
		return wgslTypeLayout{size: stride * uint64(cols), align: column.align}, true
	}
	return wgslTypeLayout{}, false
}

// resolveTypeLayout resolves a type against the primitives and the structs resolved so far.
// array<T, N> resolves to N strides of T; a runtime-sized array<T> resolves to one stride.
//
// Parameters:
//   - typeName: the WGSL type, e.g. "f32", "CameraUniform", "array<Light, 4>"
//   - knownTypes: struct layouts resolved so far
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: false if the type or its element type is unknown
func resolveTypeLayout(typeName string, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	typeName = strings.TrimSpace(typeName)
	if layout, ok := knownTypes[typeName]; ok {
		return layout, true
	}
	if layout, ok := primitiveLayout(typeName); ok {
		return layout, true
	}

	base, param := splitTypeParams(typeName)
	if base != "array" || param == "" {
		return wgslTypeLayout{}, false
	}
	parts := splitAtTopLevelCommas(param)
	elem, ok := resolveTypeLayout(parts[0], knownTypes)
	if !ok {
		return wgslTypeLayout{}, false
	}
	stride := alignUp(elem.size, elem.align)
	count := uint64(1)
	if len(parts) > 1 {
		n, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return wgslTypeLayout{}, false
		}
		count = n
	}
	return wgslTypeLayout{size: stride * count, align: elem.align}, true
}

// computeStructLayout lays out the fields of one struct in order. Builtin fields are skipped.
// A trailing runtime-sized array contributes one element, so the result is the smallest
// binding that holds one entry.
func computeStructLayout(ps parsedStruct, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		layout, ok := resolveTypeLayout(f.typeName, knownTypes)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = alignUp(offset, layout.align) + layout.size
		align = max(align, layout.align)
	}
	return wgslTypeLayout{size: alignUp(offset, align), align: align}, true
}

// computeStructSizes resolves every struct it can. Structs may reference structs declared
// later, so resolution repeats until a pass makes no progress.
//
// Parameters:
//   - structs: the parsed struct blocks
//
// Returns:
//   - map[string]wgslTypeLayout: layouts by struct name; unresolvable structs are absent
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	pending := structs
	for len(pending) > 0 {
		var unresolved []parsedStruct
		for _, ps := range pending {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				unresolved = append(unresolved, ps)
			}
		}
		if len(unresolved) == len(pending) {
			break
		}
		pending = unresolved
	}
	return resolved
}

// classifyDeclaration sets the kind and view dimension of a declaration from its address
// space ("uniform", "storage, read") or, for handle types, from its type name.
func classifyDeclaration(decl *Declaration, addressSpace string) {
	if addressSpace != "" {
		space, access, _ := strings.Cut(addressSpace, ",")
		switch strings.TrimSpace(space) {
		case "uniform":
			decl.Kind = ResourceUniformBuffer
		case "storage":
			decl.Kind = ResourceReadOnlyStorageBuffer
			if strings.TrimSpace(access) == "read_write" {
				decl.Kind = ResourceStorageBuffer
			}
		}
		return
	}

	switch base, _ := splitTypeParams(decl.TypeName); {
	case base == "sampler":
		decl.Kind = ResourceSampler
	case base == "sampler_comparison":
		decl.Kind = ResourceComparisonSampler
	default:
		dim, ok := wgslTextureDimMap[base]
		if !ok {
			return
		}
		decl.ViewDimension = dim
		decl.Kind = ResourceTexture
		if strings.HasPrefix(base, "texture_depth") {
			decl.Kind = ResourceDepthTexture
		}
	}
}

// splitTypeParams splits "texture_2d<f32>" into ("texture_2d", "f32"). Types without
// parameters return an empty params string.
func splitTypeParams(typeName string) (base string, params string) {
	typeName = strings.TrimSpace(typeName)
	open := strings.IndexByte(typeName, '<')
	if open < 0 || !strings.HasSuffix(typeName, ">") {
		return typeName, ""
	}
	return typeName[:open], strings.TrimSpace(typeName[open+1 : len(typeName)-1])
}

// stripComments blanks out line comments and (nestable) block comments in one pass.
// Newlines are kept so positions stay on the same line.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		next := byte(0)
		if i+1 < len(source) {
			next = source[i+1]
		}
		switch {
		case c == '/' && next == '*':
			depth++
			i++
		case depth > 0 && c == '*' && next == '/':
			depth--
			i++
		case depth > 0:
			if c == '\n' {
				sb.WriteByte('\n')
			}
		case c == '/' && next == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// splitAtTopLevelCommas splits at commas outside angle brackets, so "a: array<T, 4>, b: f32"
// yields two fields.
func splitAtTopLevelCommas(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth = max(0, depth-1)
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
