package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// policyCmd prints the effective policy after overrides, as YAML
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the effective governance policy",
	Run: func(cmd *cobra.Command, args []string) {
		p, err := resolvePolicy(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			logrus.Fatalf("Failed to encode policy: %v", err)
		}
		_ = enc.Close()
	},
}

func init() {
	addPolicyFlags(policyCmd)
}
