package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shandysiswandi/goscaff/internal/app"
)

func main() {
	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "goscaff:", err)
		os.Exit(1)
	}
}
