package main

import (
	"fmt"

	"github.com/sentinelops/sentinel/internal/risk"
)

// Run implements the capabilities command.
func (c *CapabilitiesCmd) Run(app *appContext) error {
	catalog := risk.NewCatalog()
	if c.Custom != "" {
		if err := catalog.LoadCustom(c.Custom); err != nil {
			return err
		}
	}
	for _, def := range catalog.Definitions() {
		fmt.Printf("%-20s %s\n", def.ID, def.Name)
		fmt.Printf("%-20s %s\n", "", def.Description)
	}
	return nil
}
