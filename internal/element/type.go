package element

import "strings"

// Type is the closed set of element kinds shared by every perception source.
type Type int

const (
	Unknown Type = iota
	Button
	TextField
	Checkbox
	Radio
	Dropdown
	Link
	Image
	Heading
	Paragraph
)

// Types lists every Type in declaration order.
var Types = []Type{Unknown, Button, TextField, Checkbox, Radio, Dropdown, Link, Image, Heading, Paragraph}

// String returns the lowercase spoken name of the type.
func (t Type) String() string {
	switch t {
	case Button:
		return "button"
	case TextField:
		return "text field"
	case Checkbox:
		return "checkbox"
	case Radio:
		return "radio button"
	case Dropdown:
		return "dropdown"
	case Link:
		return "link"
	case Image:
		return "image"
	case Heading:
		return "heading"
	case Paragraph:
		return "text"
	case Unknown:
		return "unknown"
	}
	return "unknown"
}

// MarshalText encodes the type as its spoken name.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name or native role string.
func (t *Type) UnmarshalText(b []byte) error {
	*t = ParseType(string(b))
	return nil
}

// ParseType maps a native role or control-type string onto Type.
// Unrecognized roles map to Unknown.
func ParseType(role string) Type {
	role = strings.ToLower(strings.TrimSpace(role))
	role = strings.TrimSuffix(role, "control")
	switch role {
	case "button", "pushbutton", "togglebutton", "menuitem", "splitbutton":
		return Button
	case "edit", "textfield", "text field", "textbox", "input", "searchbox", "document":
		return TextField
	case "checkbox", "check box":
		return Checkbox
	case "radio", "radiobutton", "radio button":
		return Radio
	case "combobox", "dropdown", "select", "listbox":
		return Dropdown
	case "hyperlink", "link":
		return Link
	case "image", "img", "graphic":
		return Image
	case "heading", "header", "h1", "h2", "h3", "h4", "h5", "h6":
		return Heading
	case "text", "paragraph", "statictext", "label":
		return Paragraph
	}
	return Unknown
}

// MostSpecific applies the cross-source tie-break: the first non-Unknown
// classification wins, else Unknown.
func MostSpecific(types ...Type) Type {
	for _, t := range types {
		if t != Unknown {
			return t
		}
	}
	return Unknown
}

// Interactive reports whether the type accepts user input.
func (t Type) Interactive() bool {
	switch t {
	case Button, TextField, Checkbox, Radio, Dropdown, Link:
		return true
	case Unknown, Image, Heading, Paragraph:
		return false
	}
	return false
}
