package model

import "sort"

// RoleMap maps macOS AXRole values to compact role codes.
var RoleMap = map[string]string{
	"AXButton":      "btn",
	"AXStaticText":  "txt",
	"AXLink":        "lnk",
	"AXImage":       "img",
	"AXTextField":   "input",
	"AXTextArea":    "input",
	"AXCheckBox":    "chk",
	"AXSwitch":      "toggle",
	"AXRadioButton": "radio",
	"AXMenu":        "menu",
	"AXMenuBar":     "menu",
	"AXMenuItem":    "menuitem",
	"AXTabGroup":    "tab",
	"AXList":        "list",
	"AXTable":       "list",
	"AXRow":         "row",
	"AXCell":        "cell",
	"AXGroup":       "group",
	"AXSplitGroup":  "group",
	"AXScrollArea":  "scroll",
	"AXToolbar":     "toolbar",
	"AXWebArea":     "web",
	"AXWindow":      "window",
}

// MapRole converts a raw accessibility role to a compact code.
func MapRole(axRole string) string {
	if short, ok := RoleMap[axRole]; ok {
		return short
	}
	return "other"
}

// codeAriaRoles maps compact desktop role codes to ARIA roles so that role
// locators work the same way on desktop and web.
var codeAriaRoles = map[string]string{
	"btn":      "button",
	"lnk":      "link",
	"img":      "img",
	"input":    "textbox",
	"chk":      "checkbox",
	"toggle":   "switch",
	"radio":    "radio",
	"menu":     "menu",
	"menuitem": "menuitem",
	"tab":      "tablist",
	"list":     "list",
	"row":      "row",
	"cell":     "cell",
	"group":    "group",
	"toolbar":  "toolbar",
	"window":   "window",
	"txt":      "text",
}

// AriaRoleForCode returns the ARIA role of a desktop role code, or "".
func AriaRoleForCode(code string) string {
	return codeAriaRoles[code]
}

// implicitTagRoles holds the implicit ARIA roles of common HTML tags.
var implicitTagRoles = map[string]string{
	"button":   "button",
	"a":        "link",
	"textarea": "textbox",
	"select":   "combobox",
	"img":      "img",
	"nav":      "navigation",
	"dialog":   "dialog",
	"ul":       "list",
	"ol":       "list",
	"li":       "listitem",
	"table":    "table",
	"tr":       "row",
	"td":       "cell",
	"h1":       "heading",
	"h2":       "heading",
	"h3":       "heading",
	"form":     "form",
}

// inputTypeRoles holds the implicit roles of <input> by type.
var inputTypeRoles = map[string]string{
	"button":   "button",
	"submit":   "button",
	"reset":    "button",
	"checkbox": "checkbox",
	"radio":    "radio",
	"range":    "slider",
	"search":   "searchbox",
}

// ImplicitRole returns the ARIA role a tag carries without an explicit role
// attribute. Desktop role codes are accepted as tags too.
func ImplicitRole(tag, inputType string) string {
	if tag == "input" {
		if r, ok := inputTypeRoles[inputType]; ok {
			return r
		}
		return "textbox"
	}
	if r, ok := implicitTagRoles[tag]; ok {
		return r
	}
	return codeAriaRoles[tag]
}

// RoleTags is the inverse of ImplicitRole for HTML. It returns the tags and
// <input> types that carry role without an explicit attribute, and whether
// an <input> of any unlisted type does.
func RoleTags(role string) (tags, inputTypes []string, defaultInput bool) {
	for tag, r := range implicitTagRoles {
		if r == role {
			tags = append(tags, tag)
		}
	}
	for typ, r := range inputTypeRoles {
		if r == role {
			inputTypes = append(inputTypes, typ)
		}
	}
	sort.Strings(tags)
	sort.Strings(inputTypes)
	return tags, inputTypes, role == "textbox"
}

// RoleInputTypes lists the <input> types that have a role other than textbox.
func RoleInputTypes() []string {
	out := make([]string, 0, len(inputTypeRoles))
	for typ := range inputTypeRoles {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}
