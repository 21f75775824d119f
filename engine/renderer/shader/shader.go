package shader

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// shader is the implementation of the Shader interface.
// It holds the assembled WGSL module and everything parsed out of it for pipeline creation.
type shader struct {
	key            string
	source         string
	vertexEntry    string
	fragmentEntry  string
	declarations   []Declaration
	declarationMap map[uint32]map[uint32]Declaration
}

// Shader defines the interface for a parsed WGSL module containing one vertex and one fragment
// entry point. It exposes the module's key, assembled source, entry points and the resource
// declarations needed to check bind group layouts.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the assembled WGSL source code, shared definitions included.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// VertexEntryPoint returns the name of the @vertex function.
	//
	// Returns:
	//   - string: the entry point name, or empty if the module has none
	VertexEntryPoint() string

	// FragmentEntryPoint returns the name of the @fragment function.
	//
	// Returns:
	//   - string: the entry point name, or empty if the module has none
	FragmentEntryPoint() string

	// Declarations returns every @group/@binding declaration sorted by group then binding.
	//
	// Returns:
	//   - []Declaration: the declarations
	Declarations() []Declaration

	// Declaration looks up a single binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - Declaration: the declaration
	//   - bool: false if the module declares nothing at (group, binding)
	Declaration(group, binding uint32) (Declaration, bool)

	// GroupDeclarations returns the declarations of one bind group in binding order.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - []Declaration: the group's declarations, empty if unused
	GroupDeclarations(group uint32) []Declaration

	// ModuleDescriptor builds the descriptor used to create the GPU shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: a WGSL module descriptor labelled with the key
	ModuleDescriptor() *wgpu.ShaderModuleDescriptor

	// Validate compiles the module with naga to catch WGSL errors without a GPU.
	//
	// Returns:
	//   - error: the compiler error, or nil
	Validate() error
}

var _ Shader = &shader{}

// NewShader assembles a WGSL module from shared definitions and a body, then parses it.
// Definitions are prepended in order, so struct types such as CameraUniform can live in one
// place and be reused by every module.
//
// Parameters:
//   - key: unique shader identifier
//   - body: the module's own WGSL source
//   - definitions: shared WGSL snippets placed before the body
//
// Returns:
//   - Shader: the parsed shader
//   - error: error if the module lacks a vertex or fragment entry point
func NewShader(key, body string, definitions ...string) (Shader, error) {
	var sb strings.Builder
	for _, def := range definitions {
		sb.WriteString(def)
		if !strings.HasSuffix(def, "\n") {
			sb.WriteByte('\n')
		}
	}
	sb.WriteString(body)
	source := sb.String()

	s := &shader{
		key:            key,
		source:         source,
		vertexEntry:    parseEntryPoint(source, wgpu.ShaderStageVertex),
		fragmentEntry:  parseEntryPoint(source, wgpu.ShaderStageFragment),
		declarations:   parseDeclarations(source),
		declarationMap: make(map[uint32]map[uint32]Declaration),
	}
	if s.vertexEntry == "" || s.fragmentEntry == "" {
		return nil, fmt.Errorf("shader %s: missing vertex or fragment entry point", key)
	}
	for _, d := range s.declarations {
		if s.declarationMap[d.Group] == nil {
			s.declarationMap[d.Group] = make(map[uint32]Declaration)
		}
		s.declarationMap[d.Group][d.Binding] = d
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntry
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntry
}

func (s *shader) Declarations() []Declaration {
	return s.declarations
}

func (s *shader) Declaration(group, binding uint32) (Declaration, bool) {
	d, ok := s.declarationMap[group][binding]
	return d, ok
}

func (s *shader) GroupDeclarations(group uint32) []Declaration {
	var out []Declaration
	for _, d := range s.declarations {
		if d.Group == group {
			out = append(out, d)
		}
	}
	return out
}

func (s *shader) ModuleDescriptor() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label:          s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.source},
	}
}

func (s *shader) Validate() error {
	if _, err := naga.Compile(s.source); err != nil {
		return fmt.Errorf("shader %s failed to compile: %w", s.key, err)
	}
	return nil
}
