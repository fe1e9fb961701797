package main

import (
	"context"
	"fmt"

	"github.com/trezcool/maendeleo/core/progress"
)

// seedProgress assigns the default curriculum template to a student.
func (cli *commandLine) seedProgress(studentID string) error {
	items, err := cli.progSvc.SeedTemplate(context.Background(), studentID, progress.DefaultTemplate)
	if err != nil {
		return err
	}
	fmt.Printf("created %d progress items for student %s\n", len(items), studentID)
	return nil
}
