package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tocgen/pkg/config"
	"tocgen/pkg/models"
)

func TestDoGenerate_Stdout(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "doc.md")
	require.NoError(t, os.WriteFile(input, []byte("# Intro\n## Setup\n## Setup\n"), 0644))

	var stdout, stderr bytes.Buffer
	exitCode := doGenerate("", "", &generateOpts{}, input, "", strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, exitCode, "stderr: %s", stderr.String())
	want := "## Table of Contents\n\n* [Intro](#intro)\n    * [Setup](#setup)\n    * [Setup](#setup-1)\n"
	assert.Equal(t, want, stdout.String())
}

func TestDoGenerate_Stdin(t *testing.T) {
	opts := &generateOpts{title: "", explicit: map[string]bool{"title": true}}

	var stdout, stderr bytes.Buffer
	exitCode := doGenerate("", "", opts, "-", "", strings.NewReader("# One\n## Two\n"), &stdout, &stderr)

	require.Equal(t, 0, exitCode, "stderr: %s", stderr.String())
	assert.Equal(t, "* [One](#one)\n    * [Two](#two)\n", stdout.String())
}

func TestDoGenerate_HTMLInputDetected(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "page.html")
	require.NoError(t, os.WriteFile(input, []byte("<h1>Top</h1><h2>Next</h2>"), 0644))

	var stdout, stderr bytes.Buffer
	exitCode := doGenerate("", "", &generateOpts{}, input, "", strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, exitCode, "stderr: %s", stderr.String())
	want := "## Table of Contents\n\n* [Top](#top)\n    * [Next](#next)\n"
	assert.Equal(t, want, stdout.String())
}

func TestDoGenerate_HTMLOutput(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "doc.md")
	require.NoError(t, os.WriteFile(input, []byte("# A\n## B\n"), 0644))

	opts := &generateOpts{
		outputFormat: "html",
		indentWidth:  2,
		title:        "",
		explicit:     map[string]bool{"format": true, "indent": true, "title": true},
	}

	var stdout, stderr bytes.Buffer
	exitCode := doGenerate("", "", opts, input, "", strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, exitCode, "stderr: %s", stderr.String())
	want := "<ul>\n" +
		"  <li><a href=\"#a\">A</a></li>\n" +
		"  <ul>\n" +
		"    <li><a href=\"#b\">B</a></li>\n" +
		"  </ul>\n" +
		"</ul>\n"
	assert.Equal(t, want, stdout.String())
}

func TestDoGenerate_OutputFile(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "doc.md")
	outPath := filepath.Join(tmpDir, "toc.md")
	require.NoError(t, os.WriteFile(input, []byte("# Alpha\n"), 0644))

	opts := &generateOpts{title: "", explicit: map[string]bool{"title": true}}

	var stdout, stderr bytes.Buffer
	exitCode := doGenerate("", "", opts, input, outPath, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, exitCode, "stderr: %s", stderr.String())
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "* [Alpha](#alpha)\n", string(data))
}

func TestDoGenerate_ConfigDefaultsApply(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	content := `
defaults:
  indent_width: 2
  title: ""
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	input := filepath.Join(tmpDir, "doc.md")
	require.NoError(t, os.WriteFile(input, []byte("# Alpha\n## Beta\n"), 0644))

	var stdout, stderr bytes.Buffer
	exitCode := doGenerate(cfgPath, "", &generateOpts{}, input, "", strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, exitCode, "stderr: %s", stderr.String())
	assert.Equal(t, "* [Alpha](#alpha)\n  * [Beta](#beta)\n", stdout.String())
}

func TestDoGenerate_FlagOverridesConfig(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	content := `
defaults:
  indent_width: 2
  title: ""
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	input := filepath.Join(tmpDir, "doc.md")
	require.NoError(t, os.WriteFile(input, []byte("# Alpha\n## Beta\n"), 0644))

	opts := &generateOpts{indentWidth: 8, explicit: map[string]bool{"indent": true}}

	var stdout, stderr bytes.Buffer
	exitCode := doGenerate(cfgPath, "", opts, input, "", strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, exitCode, "stderr: %s", stderr.String())
	assert.Equal(t, "* [Alpha](#alpha)\n        * [Beta](#beta)\n", stdout.String())
}

func TestDoGenerate_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	exitCode := doGenerate("", "", &generateOpts{}, "/nonexistent/doc.md", "", strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error")
}

func TestDoGenerate_BadFormat(t *testing.T) {
	opts := &generateOpts{outputFormat: "rst", explicit: map[string]bool{"format": true}}

	var stdout, stderr bytes.Buffer
	exitCode := doGenerate("", "", opts, "-", "", strings.NewReader("# A\n"), &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "-format")
}

func TestDoGenerate_ConfigNotFound(t *testing.T) {
	var stdout, stderr bytes.Buffer
	exitCode := doGenerate("/nonexistent.yaml", "", &generateOpts{}, "-", "", strings.NewReader("# A\n"), &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "read config")
}

func TestGenerateOpts_Options(t *testing.T) {
	cfg := config.DefaultConfig()

	t.Run("config defaults pass through", func(t *testing.T) {
		opts, err := (&generateOpts{}).options(&cfg.Defaults)
		require.NoError(t, err)
		assert.Equal(t, models.FormatMarkdown, opts.OutputFormat)
		assert.Equal(t, 4, opts.IndentWidth)
		assert.False(t, opts.CustomAnchors)
		assert.Equal(t, "Table of Contents", opts.Title)
	})

	t.Run("explicit flags override", func(t *testing.T) {
		o := &generateOpts{
			outputFormat:  "html",
			indentWidth:   0,
			customAnchors: true,
			title:         "Overview",
			explicit: map[string]bool{
				"format": true, "indent": true, "custom-anchors": true, "title": true,
			},
		}
		opts, err := o.options(&cfg.Defaults)
		require.NoError(t, err)
		assert.Equal(t, models.FormatHTML, opts.OutputFormat)
		assert.Equal(t, 0, opts.IndentWidth)
		assert.True(t, opts.CustomAnchors)
		assert.Equal(t, "Overview", opts.Title)
	})

	t.Run("bad output format", func(t *testing.T) {
		o := &generateOpts{outputFormat: "rst", explicit: map[string]bool{"format": true}}
		_, err := o.options(&cfg.Defaults)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "-format")
	})

	t.Run("negative indent", func(t *testing.T) {
		o := &generateOpts{indentWidth: -1, explicit: map[string]bool{"indent": true}}
		_, err := o.options(&cfg.Defaults)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "-indent")
	})
}

func TestResolveInputFormat(t *testing.T) {
	plain := config.DefaultConfig()
	htmlDefault := config.DefaultConfig()
	htmlDefault.Defaults.InputFormat = "html"

	t.Run("explicit flag wins", func(t *testing.T) {
		o := &generateOpts{inputFormat: "html", explicit: map[string]bool{"input-format": true}}
		f, err := o.resolveInputFormat("doc.md", &plain.Defaults)
		require.NoError(t, err)
		assert.Equal(t, models.FormatHTML, f)
	})

	t.Run("extension detected", func(t *testing.T) {
		f, err := (&generateOpts{}).resolveInputFormat("doc.html", &plain.Defaults)
		require.NoError(t, err)
		assert.Equal(t, models.FormatHTML, f)
	})

	t.Run("extension beats config default", func(t *testing.T) {
		f, err := (&generateOpts{}).resolveInputFormat("doc.md", &htmlDefault.Defaults)
		require.NoError(t, err)
		assert.Equal(t, models.FormatMarkdown, f)
	})

	t.Run("config default when extension unknown", func(t *testing.T) {
		f, err := (&generateOpts{}).resolveInputFormat("README", &htmlDefault.Defaults)
		require.NoError(t, err)
		assert.Equal(t, models.FormatHTML, f)
	})

	t.Run("markdown fallback", func(t *testing.T) {
		f, err := (&generateOpts{}).resolveInputFormat("README", &plain.Defaults)
		require.NoError(t, err)
		assert.Equal(t, models.FormatMarkdown, f)
	})

	t.Run("stdin skips extension", func(t *testing.T) {
		f, err := (&generateOpts{}).resolveInputFormat("-", &htmlDefault.Defaults)
		require.NoError(t, err)
		assert.Equal(t, models.FormatHTML, f)
	})

	t.Run("bad explicit format", func(t *testing.T) {
		o := &generateOpts{inputFormat: "rst", explicit: map[string]bool{"input-format": true}}
		_, err := o.resolveInputFormat("doc.md", &plain.Defaults)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "-input-format")
	})
}

func TestBuildTargets(t *testing.T) {
	tmpDir := t.TempDir()
	mdPath := filepath.Join(tmpDir, "guide.md")
	htmlPath := filepath.Join(tmpDir, "page.html")
	require.NoError(t, os.WriteFile(mdPath, []byte("# A\n"), 0644))
	require.NoError(t, os.WriteFile(htmlPath, []byte("<h1>A</h1>"), 0644))

	cfg := config.DefaultConfig()
	targets, err := buildTargets([]string{mdPath, htmlPath}, "", &generateOpts{}, cfg)

	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, filepath.Join(tmpDir, "guide.toc.md"), targets[0].OutputPath)
	assert.Equal(t, models.FormatMarkdown, targets[0].Options.InputFormat)
	assert.Equal(t, filepath.Join(tmpDir, "page.toc.md"), targets[1].OutputPath)
	assert.Equal(t, models.FormatHTML, targets[1].Options.InputFormat)
}

func TestBuildTargets_ExplicitOutput(t *testing.T) {
	tmpDir := t.TempDir()
	mdPath := filepath.Join(tmpDir, "guide.md")
	require.NoError(t, os.WriteFile(mdPath, []byte("# A\n"), 0644))
	outPath := filepath.Join(tmpDir, "custom.md")

	cfg := config.DefaultConfig()
	targets, err := buildTargets([]string{mdPath}, outPath, &generateOpts{}, cfg)

	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, outPath, targets[0].OutputPath)
}

func TestBuildTargets_MissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := buildTargets([]string{"/nonexistent/doc.md"}, "", &generateOpts{}, cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat")
}

func TestBuildTargets_StdinRejected(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := buildTargets([]string{"-"}, "", &generateOpts{}, cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin")
}

func TestDoWatch_RegeneratesUntilSignalled(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "doc.md")
	outPath := filepath.Join(tmpDir, "doc.toc.md")
	require.NoError(t, os.WriteFile(input, []byte("# Alpha\n## Beta\n"), 0644))

	opts := &generateOpts{title: "", explicit: map[string]bool{"title": true}}
	sigChan := make(chan os.Signal, 1)

	exitCode := make(chan int, 1)
	go func() {
		exitCode <- doWatch("", "", opts, []string{input}, "", "50ms", "", sigChan, io.Discard)
	}()

	want := "* [Alpha](#alpha)\n    * [Beta](#beta)\n"
	waitForContent(t, outPath, want)

	require.NoError(t, os.WriteFile(input, []byte("# Alpha\n## Beta\n## Gamma\n"), 0644))
	waitForContent(t, outPath, want+"    * [Gamma](#gamma)\n")

	sigChan <- syscall.SIGTERM
	select {
	case code := <-exitCode:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("doWatch did not stop after signal")
	}
}

func TestDoWatch_MissingFile(t *testing.T) {
	sigChan := make(chan os.Signal, 1)

	var stderr bytes.Buffer
	exitCode := doWatch("", "", &generateOpts{}, []string{"/nonexistent/doc.md"}, "", "", "", sigChan, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Watch setup error")
}

func TestDoWatch_InvalidDebounce(t *testing.T) {
	sigChan := make(chan os.Signal, 1)

	var stderr bytes.Buffer
	exitCode := doWatch("", "", &generateOpts{}, []string{"doc.md"}, "", "soon", "", sigChan, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "-debounce")
}

func TestDoValidate_Valid(t *testing.T) {
	content := `
log_level: debug
defaults:
  output_format: html
watch:
  debounce: 500ms
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	var stdout, stderr bytes.Buffer
	exitCode := doValidate(cfgPath, &stdout, &stderr)

	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "Configuration valid")
	assert.NotContains(t, stdout.String(), "WARN")
}

func TestDoValidate_Warnings(t *testing.T) {
	content := `
defaults:
  indent_width: -3
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	var stdout, stderr bytes.Buffer
	exitCode := doValidate(cfgPath, &stdout, &stderr)

	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "WARN")
	assert.Contains(t, stdout.String(), "indent_width")
	assert.Contains(t, stdout.String(), "Configuration valid")
}

func TestDoValidate_BadFormat(t *testing.T) {
	content := `
defaults:
  input_format: rst
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	var stdout, stderr bytes.Buffer
	exitCode := doValidate(cfgPath, &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "ERROR")
}

func TestDoValidate_ConfigNotFound(t *testing.T) {
	var stdout, stderr bytes.Buffer
	exitCode := doValidate("/nonexistent.yaml", &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error")
}

func TestDoListFormats(t *testing.T) {
	var stdout bytes.Buffer
	exitCode := doListFormats(&stdout)

	assert.Equal(t, 0, exitCode)
	out := stdout.String()
	assert.Contains(t, out, "markdown")
	assert.Contains(t, out, "html")
	assert.Contains(t, out, ".md")
	assert.Contains(t, out, ".xhtml")
}

func TestDoMcpServer_ConfigNotFound(t *testing.T) {
	sigChan := make(chan os.Signal, 1)

	var stderr bytes.Buffer
	exitCode := doMcpServer("/nonexistent.yaml", "stdio", "", "", sigChan, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error loading config")
}

func TestDoMcpServer_UnknownTransport(t *testing.T) {
	sigChan := make(chan os.Signal, 1)

	var stderr bytes.Buffer
	exitCode := doMcpServer("", "carrier-pigeon", "", "error", sigChan, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "unknown transport")
}

func TestPrintUsageTo(t *testing.T) {
	var buf bytes.Buffer
	printUsageTo(&buf)

	out := buf.String()
	assert.Contains(t, out, "generate")
	assert.Contains(t, out, "watch")
	assert.Contains(t, out, "validate")
	assert.Contains(t, out, "list-formats")
	assert.Contains(t, out, "mcp-server")
	assert.Contains(t, out, "version")
}

// waitForContent polls path until it holds want or the deadline passes.
func waitForContent(t *testing.T, path, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && string(data) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	data, _ := os.ReadFile(path)
	t.Fatalf("timed out waiting for %s to hold %q, last content %q", path, want, string(data))
}
