package model

import "strings"

// RoleMap maps browser accessibility roles to the ARIA roles used in snapshots.
var RoleMap = map[string]string{
	"RootWebArea":      "document",
	"WebArea":          "document",
	"StaticText":       "text",
	"GenericContainer": "generic",
	"generic":          "generic",
	"Section":          "generic",
	"Div":              "generic",
	"paragraph":        "paragraph",
	"heading":          "heading",
	"link":             "link",
	"button":           "button",
	"PopUpButton":      "button",
	"textbox":          "textbox",
	"TextField":        "textbox",
	"searchbox":        "searchbox",
	"checkbox":         "checkbox",
	"radio":            "radio",
	"switch":           "switch",
	"combobox":         "combobox",
	"ComboBoxSelect":   "combobox",
	"MenuListPopup":    "listbox",
	"MenuListOption":   "option",
	"listbox":          "listbox",
	"option":           "option",
	"list":             "list",
	"listitem":         "listitem",
	"ListMarker":       "text",
	"image":            "img",
	"img":              "img",
	"navigation":       "navigation",
	"main":             "main",
	"banner":           "banner",
	"contentinfo":      "contentinfo",
	"form":             "form",
	"dialog":           "dialog",
	"alertdialog":      "alertdialog",
	"table":            "table",
	"row":              "row",
	"cell":             "cell",
	"columnheader":     "columnheader",
	"rowheader":        "rowheader",
	"tab":              "tab",
	"tablist":          "tablist",
	"tabpanel":         "tabpanel",
	"menu":             "menu",
	"menuitem":         "menuitem",
	"slider":           "slider",
	"progressbar":      "progressbar",
	"LabelText":        "generic",
}

// skippedRoles never appear in snapshots; their children are promoted.
var skippedRoles = map[string]bool{
	"InlineTextBox": true,
	"LineBreak":     true,
	"none":          true,
	"presentation":  true,
	"Ignored":       true,
}

// interactiveRoles are roles a user can act on; nodes with these roles get refs.
var interactiveRoles = map[string]bool{
	"button":    true,
	"link":      true,
	"textbox":   true,
	"searchbox": true,
	"checkbox":  true,
	"radio":     true,
	"switch":    true,
	"combobox":  true,
	"listbox":   true,
	"option":    true,
	"slider":    true,
	"tab":       true,
	"menuitem":  true,
}

// MapRole converts a browser accessibility role to its snapshot role.
// Unknown roles are lowercased and passed through.
func MapRole(role string) string {
	if mapped, ok := RoleMap[role]; ok {
		return mapped
	}
	if role == "" {
		return "generic"
	}
	return strings.ToLower(role)
}

// IsInteractive reports whether a snapshot role accepts user input.
func IsInteractive(role string) bool {
	return interactiveRoles[role]
}
