// Template command execution.

package cli

import (
	"fmt"
)

// TemplateList prints the stored templates grouped by category.
func (a *App) TemplateList() error {
	categories := a.Templates.Categories()
	if len(categories) == 0 {
		fmt.Println("No templates.")
		return nil
	}

	for _, category := range categories {
		fmt.Printf("%s:\n", category)
		byCategory := a.Templates.ByCategory(category)
		for _, name := range a.Templates.Names() {
			template, ok := byCategory[name]
			if !ok {
				continue
			}
			if template.Description != "" {
				fmt.Printf("  %s - %s\n", name, template.Description)
			} else {
				fmt.Printf("  %s\n", name)
			}
		}
	}
	return nil
}

// TemplateShow prints one template's prompt text.
func (a *App) TemplateShow(name string) error {
	prompt := a.Templates.Get(name)
	if prompt == "" {
		return fmt.Errorf("unknown template: %q", name)
	}
	fmt.Println(prompt)
	return nil
}

// TemplateAdd stores a new template.
func (a *App) TemplateAdd(name, prompt, description, category string) error {
	if err := a.Templates.Add(name, prompt, description, category); err != nil {
		return err
	}
	fmt.Printf("Added template %q.\n", name)
	return nil
}

// TemplateDelete removes a template.
func (a *App) TemplateDelete(name string) error {
	if err := a.Templates.Delete(name); err != nil {
		return err
	}
	fmt.Printf("Deleted template %q.\n", name)
	return nil
}
