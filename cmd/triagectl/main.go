// triagectl 离线筛选一个目录下的 PDF 简历
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "triagectl",
	Short: "Offline resume triage",
	Long:  "triagectl ingests a directory of PDF resumes into a throwaway session, ranks them against a job and writes the triage archive.",
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
