package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/kjannette/contract-gateway/internal/contracts"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "abictl",
		Short:         "Inspect contract ABIs and encode call parameters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newInspectCmd(), newParamsCmd(), newEncodeCmd())
	return root
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.abi>",
		Short: "List the constructor and functions of an ABI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "constructor(%s)\n", formatVariables(doc.Constructor.Inputs))
			for _, name := range doc.FunctionNames() {
				fn, _ := doc.Function(name)
				line := fmt.Sprintf("%s(%s)", name, formatVariables(fn.Inputs))
				if len(fn.Outputs) > 0 {
					line += " returns (" + formatVariables(fn.Outputs) + ")"
				}
				if fn.StateMutability != "" {
					line += " " + fn.StateMutability
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newParamsCmd() *cobra.Command {
	var argsJSON string
	cmd := &cobra.Command{
		Use:   "params <file.abi> [function]",
		Short: "Show the tokens a JSON argument list converts to",
		Long:  "Without a function name the constructor inputs are used.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			unit := doc.Constructor
			if len(args) == 2 {
				if unit, err = doc.Lookup(args[1]); err != nil {
					return err
				}
			}
			decoded, err := contracts.DecodeArgs([]byte(argsJSON))
			if err != nil {
				return err
			}
			tokens, err := unit.Params(decoded)
			if err != nil {
				return err
			}
			for _, tok := range tokens {
				fmt.Fprintln(cmd.OutOrStdout(), tok.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", "arguments as a JSON array")
	return cmd
}

func newEncodeCmd() *cobra.Command {
	var (
		argsJSON string
		binFile  string
	)
	cmd := &cobra.Command{
		Use:   "encode <file.abi> [function]",
		Short: "Print hex call data for a function or constructor",
		Long:  "Without a function name the constructor arguments are encoded, prefixed by --bin when given.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read abi: %w", err)
			}
			enc, err := contracts.NewEncoder(raw)
			if err != nil {
				return err
			}
			decoded, err := contracts.DecodeArgs([]byte(argsJSON))
			if err != nil {
				return err
			}

			var data []byte
			if len(args) == 2 {
				data, err = enc.EncodeCall(args[1], decoded)
			} else {
				data, err = enc.EncodeConstructor(decoded)
				if err == nil && binFile != "" {
					var code []byte
					if code, err = readBin(binFile); err == nil {
						data = append(code, data...)
					}
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", "arguments as a JSON array")
	cmd.Flags().StringVar(&binFile, "bin", "", "bytecode file to prefix constructor arguments with")
	return cmd
}

func loadDocument(path string) (*contracts.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read abi: %w", err)
	}
	return contracts.ParseDocument(raw)
}

func readBin(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bin: %w", err)
	}
	code, err := hexutil.Decode("0x" + strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode bin: %w", err)
	}
	return code, nil
}

func formatVariables(vars []contracts.Variable) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = strings.TrimSpace(v.Type + " " + v.Name)
	}
	return strings.Join(parts, ", ")
}
