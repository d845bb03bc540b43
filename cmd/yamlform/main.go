// Command yamlform edits YAML files through structured values while keeping their
// comments and layout.
//
//	yamlform get values.yaml spec.replicas
//	yamlform set -i values.yaml '{"spec": {"replicas": 3}}'
//	yamlform patch values.yaml '[{"op": "replace", "path": "/spec/replicas", "value": 3}]'
//	yamlform remark set -i values.yaml spec.replicas "scaled for launch"
package main

import (
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	gyaml "github.com/goccy/go-yaml"
	"github.com/kevinwang15/yamlform"
	"github.com/kevinwang15/yamlform/binding"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand(afero.NewOsFs(), os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	fs       afero.Fs
	stderr   io.Writer
	logger   log.Logger
	logLevel string
	config   string
	inPlace  bool
}

func newRootCommand(fs afero.Fs, stderr io.Writer) *cobra.Command {
	a := &app{fs: fs, stderr: stderr, logger: log.NewNopLogger()}
	root := &cobra.Command{
		Use:          "yamlform",
		Short:        "Edit YAML files through structured values, keeping comments and layout",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setupLogger()
		},
	}
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.logLevel, "log.level", "info", "Only log messages with the given severity or above. One of: [debug, info, warn, error]")
	root.PersistentFlags().StringVar(&a.config, "config", "", "Binding configuration file (key map, merge and empty-value options, validation rules)")
	root.PersistentFlags().BoolVarP(&a.inPlace, "in-place", "i", false, "Write the result back to the file instead of standard output")

	remark := &cobra.Command{
		Use:   "remark",
		Short: "Read or write the comment trailing a value",
	}
	remark.AddCommand(
		&cobra.Command{
			Use:   "get FILE PATH",
			Short: "Print the comment trailing the value at PATH",
			Args:  cobra.ExactArgs(2),
			RunE:  a.remarkGet,
		},
		&cobra.Command{
			Use:   "set FILE PATH TEXT",
			Short: "Set the comment trailing the value at PATH",
			Args:  cobra.ExactArgs(3),
			RunE:  a.remarkSet,
		},
	)

	root.AddCommand(
		&cobra.Command{
			Use:   "get FILE [PATH]",
			Short: "Print the document value, or the value at a dotted PATH",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  a.get,
		},
		&cobra.Command{
			Use:   "set FILE VALUE",
			Short: "Rewrite the document so that it holds VALUE (JSON or flow YAML)",
			Args:  cobra.ExactArgs(2),
			RunE:  a.set,
		},
		&cobra.Command{
			Use:   "patch FILE PATCH",
			Short: "Apply an RFC 6902 JSON Patch",
			Args:  cobra.ExactArgs(2),
			RunE:  a.patch,
		},
		&cobra.Command{
			Use:   "merge FILE PATCH",
			Short: "Apply an RFC 7386 JSON Merge Patch",
			Args:  cobra.ExactArgs(2),
			RunE:  a.merge,
		},
		&cobra.Command{
			Use:   "validate FILE",
			Short: "Check the document against the rules of --config",
			Args:  cobra.ExactArgs(1),
			RunE:  a.validate,
		},
		remark,
	)
	return root
}

func (a *app) setupLogger() error {
	lvl, err := level.Parse(a.logLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid --log.level %q", a.logLevel)
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(a.stderr))
	a.logger = level.NewFilter(logger, level.Allow(lvl))
	return nil
}

func (a *app) options() (binding.Options, error) {
	if a.config == "" {
		return binding.Options{Logger: a.logger}, nil
	}
	data, err := afero.ReadFile(a.fs, a.config)
	if err != nil {
		return binding.Options{}, errors.Wrap(err, "read config")
	}
	opts, err := binding.LoadConfig(data)
	if err != nil {
		return binding.Options{}, errors.Wrapf(err, "load config %s", a.config)
	}
	opts.Logger = a.logger
	return opts, nil
}

func (a *app) open(file string) (*binding.Form, error) {
	data, err := afero.ReadFile(a.fs, file)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	return binding.New(string(data), opts), nil
}

// write prints the edited text, or stores it in file with --in-place.
func (a *app) write(cmd *cobra.Command, file, text string) error {
	if !a.inPlace {
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	}
	perm := os.FileMode(0o644)
	if fi, err := a.fs.Stat(file); err == nil {
		perm = fi.Mode().Perm()
	}
	if err := afero.WriteFile(a.fs, file, []byte(text), perm); err != nil {
		return errors.Wrap(err, "write file")
	}
	level.Info(a.logger).Log("msg", "updated file", "file", file)
	return nil
}

func (a *app) get(cmd *cobra.Command, args []string) error {
	form, err := a.open(args[0])
	if err != nil {
		return err
	}
	v, err := form.Values()
	if err != nil {
		return errors.Wrap(err, "decode document")
	}
	if len(args) == 2 {
		var ok bool
		if v, ok = binding.Get(v, args[1]); !ok {
			return errors.Errorf("path %q not found", args[1])
		}
	}
	out, err := gyaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode value")
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func (a *app) set(cmd *cobra.Command, args []string) error {
	form, err := a.open(args[0])
	if err != nil {
		return err
	}
	// JSON is flow YAML, so the value keeps the key order it was written in.
	v, err := yamlform.Decode(args[1])
	if err != nil {
		return errors.Wrap(err, "parse value")
	}
	if err := form.SetValues(v); err != nil {
		return errors.Wrap(err, "set value")
	}
	return a.write(cmd, args[0], form.YAML())
}

func (a *app) patch(cmd *cobra.Command, args []string) error {
	form, err := a.open(args[0])
	if err != nil {
		return err
	}
	if err := form.Document().ApplyJSONPatchBytes([]byte(args[1])); err != nil {
		return errors.Wrap(err, "apply patch")
	}
	return a.write(cmd, args[0], form.YAML())
}

func (a *app) merge(cmd *cobra.Command, args []string) error {
	form, err := a.open(args[0])
	if err != nil {
		return err
	}
	if err := form.Document().ApplyMergePatch([]byte(args[1])); err != nil {
		return errors.Wrap(err, "apply merge patch")
	}
	return a.write(cmd, args[0], form.YAML())
}

func (a *app) validate(cmd *cobra.Command, args []string) error {
	if a.config == "" {
		return errors.New("validate needs --config with rules")
	}
	form, err := a.open(args[0])
	if err != nil {
		return err
	}
	err = form.Validate()
	var verr *binding.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Failures {
			level.Error(a.logger).Log("msg", "validation failed", "field", f.Field, "value", f.FieldValue, "reason", f.Message)
		}
		return errors.Errorf("%d validation failures", len(verr.Failures))
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), "ok\n")
	return err
}

func (a *app) remarkGet(cmd *cobra.Command, args []string) error {
	form, err := a.open(args[0])
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), form.Document().Remark(yamlform.SplitPath(args[1])...)+"\n")
	return err
}

func (a *app) remarkSet(cmd *cobra.Command, args []string) error {
	form, err := a.open(args[0])
	if err != nil {
		return err
	}
	if !form.Document().SetRemark(args[2], yamlform.SplitPath(args[1])...) {
		return errors.Errorf("path %q not found", args[1])
	}
	return a.write(cmd, args[0], form.YAML())
}
