// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	wasm "github.com/tetratelabs/wazero"
	"gopkg.in/yaml.v3"

	"go.skill-lang.org/skill/codegen"
	"go.skill-lang.org/skill/ir"
)

type cmdCodegen struct {
	outDir     string
	pkg        string
	language   string
	configPath string
	pluginPath string
	strict     bool
}

func (*cmdCodegen) help() *commandHelp {
	return &commandHelp{
		usage:   "codegen SCHEMA",
		summary: "Generate language bindings from a schema",
	}
}

func (cmd *cmdCodegen) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outDir, "output", "o", "", "output directory")
	flags.StringVar(&cmd.pkg, "package", "", "package prefix for generated code")
	flags.StringVar(&cmd.language, "language", "", "target language (default \"text\")")
	flags.StringVar(&cmd.configPath, "config", "", "generator config file (YAML)")
	flags.StringVar(&cmd.pluginPath, "plugin-path", "", "directories searched for codegen plugins")
	flags.BoolVar(&cmd.strict, "strict", false, "treat unknown hints as errors")
}

// generatorConfig mirrors the command line flags; flags take precedence
// over config file values.
type generatorConfig struct {
	Output     string `yaml:"output"`
	Package    string `yaml:"package"`
	Language   string `yaml:"language"`
	PluginPath string `yaml:"plugin_path"`
}

func (cmd *cmdCodegen) run(ctx context.Context, argv []string) int {
	if len(argv) != 1 {
		fmt.Fprintln(os.Stderr, "usage: skill codegen [options] SCHEMA")
		return 1
	}

	if cmd.configPath != "" {
		configData, err := os.ReadFile(cmd.configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		var config generatorConfig
		if err := yaml.Unmarshal(configData, &config); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", cmd.configPath, err)
			return 1
		}
		if cmd.outDir == "" {
			cmd.outDir = config.Output
		}
		if cmd.pkg == "" {
			cmd.pkg = config.Package
		}
		if cmd.language == "" {
			cmd.language = config.Language
		}
		if cmd.pluginPath == "" {
			cmd.pluginPath = config.PluginPath
		}
	}
	if cmd.language == "" {
		cmd.language = "text"
	}
	if cmd.outDir == "" {
		fmt.Fprintln(os.Stderr, "No output directory specified (set --output=)")
		return 1
	}

	typeCtx := compileSchema(argv[0], cmd.strict)
	if typeCtx == nil {
		return 1
	}

	genCtx := &codegen.Context{
		OutDir:   cmd.outDir,
		Package:  cmd.pkg,
		Language: cmd.language,
	}

	var outputFiles []codegen.OutputFile
	var err error
	if pluginPath, ok := cmd.locatePlugin(cmd.language); ok {
		outputFiles, err = cmd.runPlugin(ctx, pluginPath, typeCtx, genCtx)
	} else if cmd.language == codegen.TextBackend().Name() {
		outputFiles, err = codegen.TextBackend().Generate(typeCtx, genCtx)
	} else {
		err = fmt.Errorf(
			"no backend for language %q: plugin skill-codegen-%s.wasm not found in plugin path",
			cmd.language, cmd.language,
		)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(outputFiles) == 0 {
		fmt.Fprintln(os.Stderr, "Backend did not generate any output files")
		return 1
	}

	if err := cmd.writeOutputFiles(outputFiles); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func (cmd *cmdCodegen) locatePlugin(language string) (string, bool) {
	path := cmd.pluginPath
	if path == "" {
		path = os.Getenv("SKILL_CODEGEN_PLUGIN_PATH")
	}
	if path == "" {
		return "", false
	}
	basename := fmt.Sprintf("skill-codegen-%s.wasm", language)
	for _, dir := range strings.Split(path, ":") {
		pluginPath := filepath.Join(dir, basename)
		if _, err := os.Stat(pluginPath); err == nil {
			return pluginPath, true
		}
	}
	return "", false
}

// runPlugin executes a codegen backend compiled to WASM. The plugin exports
// an allocator and a generate function; the request and response cross the
// module boundary as JSON.
func (cmd *cmdCodegen) runPlugin(
	ctx context.Context,
	pluginPath string,
	typeCtx *ir.TypeContext,
	genCtx *codegen.Context,
) ([]codegen.OutputFile, error) {
	requestBuf, err := codegen.EncodeRequest(typeCtx, genCtx)
	if err != nil {
		return nil, err
	}

	runtimeConfig := wasm.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(16384)
	runtime := wasm.NewRuntimeWithConfig(ctx, runtimeConfig)
	defer runtime.Close(ctx)

	pluginBin, err := os.ReadFile(pluginPath)
	if err != nil {
		return nil, err
	}
	pluginExe, err := runtime.CompileModule(ctx, pluginBin)
	if err != nil {
		return nil, err
	}

	moduleConfig := wasm.NewModuleConfig()
	plugin, err := runtime.InstantiateModule(ctx, pluginExe, moduleConfig)
	if err != nil {
		return nil, err
	}
	mem := plugin.Memory()

	wasmAlloc := plugin.ExportedFunction("skill_codegen_allocate")
	wasmGenerate := plugin.ExportedFunction("skill_codegen_generate")
	if wasmAlloc == nil || wasmGenerate == nil {
		return nil, fmt.Errorf("%s: not a codegen plugin", pluginPath)
	}

	results, err := wasmAlloc.Call(ctx, uint64(len(requestBuf)))
	if err != nil {
		return nil, err
	}
	requestPtr := results[0]
	mem.Write(uint32(requestPtr), requestBuf)

	results, err = wasmAlloc.Call(ctx, 8)
	if err != nil {
		return nil, err
	}
	responsePtrPtr := uint32(results[0])

	results, err = wasmGenerate.Call(
		ctx,
		requestPtr,
		uint64(len(requestBuf)),
		uint64(responsePtrPtr),
	)
	if err != nil {
		return nil, err
	}
	rc := uint8(results[0])

	responsePtr, _ := mem.ReadUint32Le(responsePtrPtr)
	responseLen, ok := mem.ReadUint32Le(responsePtrPtr + 4)
	if !ok {
		return nil, fmt.Errorf("%s: failed to read response length", pluginPath)
	}
	responseBuf, ok := mem.Read(responsePtr, responseLen)
	if !ok {
		return nil, fmt.Errorf("%s: failed to read response", pluginPath)
	}

	response, err := codegen.DecodeResponse(responseBuf)
	if err != nil {
		return nil, err
	}
	if rc != 0 {
		return nil, fmt.Errorf("%s: %s", pluginPath, response.Error)
	}
	return response.Files, nil
}

func (cmd *cmdCodegen) writeOutputFiles(outputFiles []codegen.OutputFile) error {
	if err := os.MkdirAll(cmd.outDir, 0o755); err != nil {
		return err
	}
	for _, outputFile := range outputFiles {
		outPath, err := cmd.outPath(outputFile)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(outPath, outputFile.Content, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *cmdCodegen) outPath(file codegen.OutputFile) (string, error) {
	parts := file.Path
	if len(parts) == 0 {
		return "", fmt.Errorf("Invalid output path %#v: empty", parts)
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("Invalid output path %#v: bad path component %q", parts, part)
		}
		if part[0] == '/' || filepath.IsAbs(part) {
			return "", fmt.Errorf("Invalid output path %#v: absolute path component %q", parts, part)
		}
		if strings.Contains(part, "/") {
			return "", fmt.Errorf("Invalid output path %#v: component %q contains '/'", parts, part)
		}
	}
	return filepath.Join(append([]string{cmd.outDir}, parts...)...), nil
}
