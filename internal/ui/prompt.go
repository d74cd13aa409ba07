package ui

import (
	"github.com/manifoldco/promptui"
)

// selectPageSize bounds how many items a picker shows at once.
const selectPageSize = 10

// Select shows an interactive picker over items and returns the index of the
// chosen one. Cancelling the prompt (Ctrl+C) returns an error.
func Select(label string, items []string) (int, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  selectPageSize,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}:",
			Active:   "> {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "{{ . | green }}",
		},
	}

	index, _, err := prompt.Run()
	if err != nil {
		return -1, err
	}

	return index, nil
}
