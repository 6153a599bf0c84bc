package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// sslModes contains valid PostgreSQL SSL modes for shell completion.
var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

var (
	policyNames   = []string{"append", "replace"}
	copyModeNames = []string{"binary", "text"}
	formatNames   = []string{"csv", "tsv", "parquet", "xlsx"}
)

// datasetExtensions are offered for the <file> argument. The shell matches
// the last extension, so compressed variants are listed on their own.
var datasetExtensions = []string{"csv", "tsv", "tab", "parquet", "xlsx", "gz", "zst", "xz", "bz2"}

func completePrefix(values []string, toComplete string) []string {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, toComplete) {
			matches = append(matches, v)
		}
	}
	return matches
}

// completeSSLModes provides shell completion for SSL mode flag values.
func completeSSLModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completePrefix(sslModes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completePolicies provides shell completion for --policy.
func completePolicies(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completePrefix(policyNames, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeCopyModes provides shell completion for --copy-mode.
func completeCopyModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completePrefix(copyModeNames, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeFormats provides shell completion for --format.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completePrefix(formatNames, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDatasetFiles provides shell completion for the dataset file argument.
func completeDatasetFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return datasetExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveFilterDirs
}
