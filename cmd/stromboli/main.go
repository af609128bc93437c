package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/stromboli/pkg/formats"
)

var rootCmd = &cobra.Command{
	Use:   "stromboli",
	Short: "Inspect captured AI provider payloads",
	Long: `stromboli detects which provider wire format produced a captured
request/response body, normalizes it into a format-agnostic conversation,
and projects it into render blocks.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		return setupLogging(viper.GetString("log-level"))
	},
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	var w io.Writer = os.Stderr
	if isatty.IsTerminal(os.Stderr.Fd()) {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	log.Logger = zerolog.New(w).With().
		Timestamp().
		Str("inspection_id", uuid.NewString()).
		Logger()
	return nil
}

func readBody(path string) (any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", path)
	}
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, errors.Wrapf(err, "%s is not valid JSON", path)
	}
	return body, nil
}

func writeOutput(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "could not encode result")
	}
	switch strings.ToLower(viper.GetString("output")) {
	case "yaml":
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return err
		}
		return yaml.NewEncoder(os.Stdout).Encode(decoded)
	default:
		out, err := json.MarshalIndent(json.RawMessage(data), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Println(string(out))
		return err
	}
}

func newDetectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <request.json> [response.json]",
		Short: "Detect which API format produced the given bodies",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := readBody(args[0])
			if err != nil {
				return err
			}
			var response any
			if len(args) > 1 {
				response, err = readBody(args[1])
				if err != nil {
					return err
				}
			}
			hint := viper.GetString("format")
			parser, score := formats.Default().DetectParser(request, response, hint)
			result := map[string]any{"format": formats.FormatUnknown, "confidence": 0}
			if parser != nil {
				result["format"] = parser.Name()
				result["confidence"] = score
			}
			return writeOutput(result)
		},
	}
	return cmd
}

func newParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <request.json> [response.json]",
		Short: "Parse bodies into the format-agnostic conversation model",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := readBody(args[0])
			if err != nil {
				return err
			}
			hint := viper.GetString("format")
			if len(args) > 1 {
				response, err := readBody(args[1])
				if err != nil {
					return err
				}
				return writeOutput(formats.ParseResponse(request, response, hint))
			}
			return writeOutput(formats.ParseRequest(request, hint))
		},
	}
	return cmd
}

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <request.json> [response.json]",
		Short: "Project bodies into the render-block tree",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := readBody(args[0])
			if err != nil {
				return err
			}
			hint := viper.GetString("format")
			if len(args) > 1 {
				response, err := readBody(args[1])
				if err != nil {
					return err
				}
				return writeOutput(formats.RenderResponse(request, response, hint))
			}
			return writeOutput(formats.RenderRequest(request, hint))
		},
	}
	return cmd
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("format", "", "Format hint when the provider is already known (claude, openai, gemini)")
	rootCmd.PersistentFlags().String("output", "json", "Output encoding (json, yaml)")

	viper.SetEnvPrefix("STROMBOLI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newDetectCommand())
	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newRenderCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
