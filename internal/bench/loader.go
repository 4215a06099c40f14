package bench

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/proofgridgo/internal/ctxlog"
)

// Defaults applied when the bench file leaves a knob out.
const (
	defaultOutputDir       = "build"
	defaultIntermediateExt = "il"
	defaultJobExt          = "sby"
	defaultSentinelName    = "PASS"
	defaultWorkers         = 4
)

// Load parses a bench file into the model, applying defaults and resolving
// relative paths against the file's directory.
func Load(ctx context.Context, path string) (*Bench, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading bench file.", "path", path)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	var parsed benchFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}

	if parsed.Project == nil {
		return nil, fmt.Errorf("%s: missing required \"project\" block", path)
	}
	if parsed.Generator == nil {
		return nil, fmt.Errorf("%s: missing required \"generator\" block", path)
	}
	if parsed.Checker == nil {
		return nil, fmt.Errorf("%s: missing required \"checker\" block", path)
	}

	dir := filepath.Dir(path)
	b := &Bench{
		Dir:             dir,
		UnitsDir:        resolve(dir, parsed.Project.UnitsDir),
		UnitPrefix:      parsed.Project.UnitPrefix,
		UnitExt:         parsed.Project.UnitExt,
		Template:        resolve(dir, parsed.Project.Template),
		OutputDir:       resolve(dir, orDefault(parsed.Project.OutputDir, defaultOutputDir)),
		IntermediateExt: orDefault(parsed.Project.IntermediateExt, defaultIntermediateExt),
		JobExt:          orDefault(parsed.Project.JobExt, defaultJobExt),
		SentinelName:    orDefault(parsed.Checker.Sentinel, defaultSentinelName),
		Workers:         defaultWorkers,
		ContinueOnError: true,
	}
	for _, shared := range parsed.Project.Shared {
		b.Shared = append(b.Shared, resolve(dir, shared))
	}

	// The output directory must be absolute: it is substituted into job
	// configs so the engine writes under a unit-specific directory no
	// matter where it is launched from.
	abs, err := filepath.Abs(b.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	b.OutputDir = abs

	b.Generator, err = newCommand(parsed.Generator.Command, parsed.Generator.Args, parsed.Generator.Env, parsed.Generator.Retries)
	if err != nil {
		return nil, fmt.Errorf("%s: generator block: %w", path, err)
	}
	b.Checker, err = newCommand(parsed.Checker.Command, parsed.Checker.Args, parsed.Checker.Env, parsed.Checker.Retries)
	if err != nil {
		return nil, fmt.Errorf("%s: checker block: %w", path, err)
	}

	if parsed.Run != nil {
		if parsed.Run.Workers > 0 {
			b.Workers = parsed.Run.Workers
		}
		if parsed.Run.ContinueOnError != nil {
			b.ContinueOnError = *parsed.Run.ContinueOnError
		}
	}

	logger.Debug("Bench file loaded.",
		"units_dir", b.UnitsDir,
		"output_dir", b.OutputDir,
		"workers", b.Workers,
	)
	return b, nil
}

// newCommand validates and converts one command block into the model.
func newCommand(command string, args []string, env cty.Value, retries int) (Command, error) {
	if command == "" {
		return Command{}, fmt.Errorf("command must not be empty")
	}
	if retries < 0 {
		return Command{}, fmt.Errorf("retries must not be negative")
	}
	envMap, err := envToStrings(env)
	if err != nil {
		return Command{}, err
	}
	return Command{
		Command: command,
		Args:    args,
		Env:     envMap,
		Retries: uint64(retries),
	}, nil
}

// envToStrings converts the env attribute's cty object into a string map.
// Values are converted rather than type-checked so numbers and bools are
// accepted the way HCL users expect.
func envToStrings(v cty.Value) (map[string]string, error) {
	if v == cty.NilVal || v.IsNull() {
		return nil, nil
	}
	if !v.CanIterateElements() {
		return nil, fmt.Errorf("env must be a map of strings, got %s", v.Type().FriendlyName())
	}

	env := make(map[string]string)
	for it := v.ElementIterator(); it.Next(); {
		key, val := it.Element()
		converted, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("env value for %q: %w", key.AsString(), err)
		}
		if converted.IsNull() {
			return nil, fmt.Errorf("env value for %q must not be null", key.AsString())
		}
		env[key.AsString()] = converted.AsString()
	}
	return env, nil
}

// resolve joins a possibly relative path onto the bench file's directory.
func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
