package index

import (
	"strings"
	"unicode"

	"github.com/jward/symkit/internal/sitter"
)

// declarations describes which node kinds of a grammar declare symbols.
type declarations struct {
	// packages declare a namespace for the rest of the file ("package x").
	// A node of one of these kinds that has a body is a block namespace.
	packages []string
	// namespaces declare a namespace whose body holds its members.
	namespaces []string
	types      []string
	members    []string

	// attached kinds declare members outside their type's body. attachField
	// names the field holding the target type: Go methods and Rust impls.
	attached    []string
	attachField string
	// scopeOnly kinds group members without declaring a symbol themselves.
	scopeOnly []string

	// anonymous function kinds bound the search; nothing inside them is
	// indexed.
	anonymous []string

	// typeParams is the field on a type declaration holding its type
	// parameter list, and typeParamKinds the kinds counted inside it.
	typeParams     string
	typeParamKinds []string

	// bodyRequired marks type kinds that are only declarations when they
	// have a body, as with C's "struct s" used as a type.
	bodyRequired bool
}

func (d *declarations) all() []string {
	var out []string
	for _, kinds := range [][]string{d.packages, d.namespaces, d.types, d.members, d.attached, d.scopeOnly} {
		out = append(out, kinds...)
	}
	return out
}

var byLanguage = map[string]*declarations{
	"go": {
		packages:       []string{"package_clause"},
		types:          []string{"type_spec", "type_alias"},
		members:        []string{"function_declaration", "field_declaration", "method_spec", "method_elem"},
		attached:       []string{"method_declaration"},
		attachField:    "receiver",
		anonymous:      []string{"func_literal"},
		typeParams:     "type_parameters",
		typeParamKinds: []string{"identifier"},
	},
	"java": {
		packages:       []string{"package_declaration"},
		types:          []string{"class_declaration", "interface_declaration", "enum_declaration", "record_declaration", "annotation_type_declaration"},
		members:        []string{"method_declaration", "constructor_declaration", "field_declaration"},
		anonymous:      []string{"lambda_expression", "object_creation_expression"},
		typeParams:     "type_parameters",
		typeParamKinds: []string{"type_parameter"},
	},
	"typescript": {
		namespaces:     []string{"internal_module", "module"},
		types:          []string{"class_declaration", "abstract_class_declaration", "interface_declaration", "enum_declaration", "type_alias_declaration"},
		members:        []string{"function_declaration", "method_definition", "public_field_definition", "method_signature", "property_signature"},
		anonymous:      []string{"arrow_function", "function_expression", "function", "class"},
		typeParams:     "type_parameters",
		typeParamKinds: []string{"type_parameter"},
	},
	"javascript": {
		types:     []string{"class_declaration"},
		members:   []string{"function_declaration", "method_definition", "field_definition"},
		anonymous: []string{"arrow_function", "function_expression", "function", "class"},
	},
	"python": {
		types:     []string{"class_definition"},
		members:   []string{"function_definition"},
		anonymous: []string{"lambda"},
	},
	"rust": {
		namespaces:     []string{"mod_item"},
		types:          []string{"struct_item", "enum_item", "trait_item", "union_item", "type_item"},
		members:        []string{"function_item", "function_signature_item", "field_declaration"},
		scopeOnly:      []string{"impl_item"},
		attachField:    "type",
		anonymous:      []string{"closure_expression"},
		typeParams:     "type_parameters",
		typeParamKinds: []string{"type_identifier", "constrained_type_parameter", "optional_type_parameter"},
	},
	"c": {
		types:        []string{"struct_specifier", "union_specifier", "enum_specifier"},
		members:      []string{"function_definition", "field_declaration"},
		bodyRequired: true,
	},
	"cpp": {
		namespaces:   []string{"namespace_definition"},
		types:        []string{"class_specifier", "struct_specifier", "union_specifier", "enum_specifier"},
		members:      []string{"function_definition", "field_declaration"},
		anonymous:    []string{"lambda_expression"},
		bodyRequired: true,
	},
	"php": {
		packages:  []string{"namespace_definition"},
		types:     []string{"class_declaration", "interface_declaration", "trait_declaration", "enum_declaration"},
		members:   []string{"function_definition", "method_declaration"},
		anonymous: []string{"anonymous_function_creation_expression", "anonymous_function", "arrow_function"},
	},
	"ruby": {
		namespaces: []string{"module"},
		types:      []string{"class"},
		members:    []string{"method", "singleton_method"},
		anonymous:  []string{"block", "do_block", "lambda"},
	},
}

// declarationsFor returns the declaration table for a supported language.
func declarationsFor(lang string) (*declarations, bool) {
	d, ok := byLanguage[lang]
	return d, ok
}

// identifierKinds are the leaf kinds that spell a declared name.
var identifierKinds = map[string]bool{
	"identifier":                  true,
	"field_identifier":            true,
	"type_identifier":             true,
	"property_identifier":         true,
	"private_property_identifier": true,
	"qualified_identifier":        true,
	"scoped_identifier":           true,
	"scope_resolution":            true,
	"namespace_identifier":        true,
	"namespace_name":              true,
	"destructor_name":             true,
	"operator_name":               true,
	"package_identifier":          true,
	"constant":                    true,
	"name":                        true,
}

// declNames returns the names a declaration node declares. Most kinds have
// one name; Go field declarations such as "X, Y int" have several.
func declNames(n *sitter.Node) []string {
	if names := n.FieldAll("name"); len(names) > 1 {
		out := make([]string, len(names))
		for i, name := range names {
			out[i] = name.Text()
		}
		return out
	}
	if name, ok := declName(n); ok {
		return []string{name}
	}
	return nil
}

func declName(n *sitter.Node) (string, bool) {
	if identifierKinds[n.Kind()] {
		return n.Text(), true
	}
	for _, field := range []string{"name", "declarator", "property"} {
		if c := n.Field(field); c != nil {
			return declName(c)
		}
	}
	return "", false
}

// qualifiedNameKinds spell a dotted or scoped name such as "A.B",
// "a::b" or "App\Models".
var qualifiedNameKinds = map[string]bool{
	"nested_identifier":          true,
	"nested_namespace_specifier": true,
	"scoped_identifier":          true,
	"scope_resolution":           true,
	"namespace_name":             true,
}

// namespaceNames returns the segments of a namespace or package name,
// outermost first. File-level package clauses in some grammars keep the
// name as an unnamed-field child, so pkg falls back to the first named one.
func namespaceNames(n *sitter.Node, pkg bool) []string {
	name := n.Field("name")
	if name == nil && pkg {
		if named := n.NamedChildren(); len(named) > 0 {
			name = named[0]
		}
	}
	if name == nil {
		return nil
	}
	if !identifierKinds[name.Kind()] && !qualifiedNameKinds[name.Kind()] {
		return nil
	}
	return strings.FieldsFunc(name.Text(), isNameSeparator)
}

func isNameSeparator(r rune) bool {
	return r == '.' || r == ':' || r == '\\' || unicode.IsSpace(r)
}

// paramName returns the name a type parameter node declares.
func paramName(n *sitter.Node) (string, bool) {
	if identifierKinds[n.Kind()] {
		return n.Text(), true
	}
	for _, field := range []string{"name", "left"} {
		if c := n.Field(field); c != nil {
			return c.Text(), true
		}
	}
	for _, c := range n.NamedChildren() {
		if identifierKinds[c.Kind()] {
			return c.Text(), true
		}
	}
	return "", false
}
