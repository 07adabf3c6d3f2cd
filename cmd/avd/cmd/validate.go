package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"avd/internal/validation"
)

var validateFields []string

var errInvalidData = errors.New("data is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate <employee|evaluation_cycle>",
	Short: "Check a payload against the entity validators",
	Long: `Runs the same validators the API applies before a write. Fields come
from repeated --field key=value flags or, when none are given, from a JSON
object on stdin. Exits non-zero when the data is invalid.`,
	Example: `  avd validate employee -f name="Maria Souza" -f email=maria@example.com \
      -f tax_id=529.982.247-25 -f birth_date=1990-05-17 -f hire_date=2020-01-06
  echo '{"name":"Q1","start_date":"2024-01-01","end_date":"2024-03-31"}' | avd validate evaluation_cycle`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(validation.EntityEmployee), string(validation.EntityEvaluationCycle)},
	RunE:      runValidate,
}

func init() {
	validateCmd.Flags().StringArrayVarP(&validateFields, "field", "f", nil, "key=value pair (repeatable)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	kind := validation.EntityKind(args[0])
	if kind != validation.EntityEmployee && kind != validation.EntityEvaluationCycle {
		err := fmt.Errorf("unknown entity kind %q", args[0])
		printError("validate", err)
		return err
	}

	fields, err := readFields(validateFields, cmd.InOrStdin())
	if err != nil {
		printError("read fields", err)
		return err
	}

	result := validation.Validate(kind, fields)
	out := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintln(out, "valid")
		return nil
	}
	for _, msg := range result.Errors {
		fmt.Fprintln(out, "- "+msg)
	}
	return errInvalidData
}

// readFields parses key=value pairs, or a JSON object from in when pairs is empty.
func readFields(pairs []string, in io.Reader) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	if len(pairs) == 0 {
		if err := json.NewDecoder(in).Decode(&fields); err != nil {
			return nil, fmt.Errorf("decode stdin: %w", err)
		}
		return fields, nil
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("field %q must be key=value", p)
		}
		fields[strings.TrimSpace(key)] = value
	}
	return fields, nil
}
