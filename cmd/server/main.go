package main

import (
	"log"
	"os"

	"studyguideai/internal/api/handlers"
	"studyguideai/internal/config"

	"github.com/spf13/cobra"
)

func init() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	handlers.RegisterSessionTypes()
}

func main() {
	root := &cobra.Command{
		Use:   "studyguide",
		Short: "Turn PDFs into study guides and quizzes",
	}
	root.AddCommand(serveCMD(), migrateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
