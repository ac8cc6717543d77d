package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"tocgen/pkg/models"
	"tocgen/pkg/toc"
	"tocgen/pkg/utils"
	"tocgen/pkg/watch"
)

// handleGenerateToc handles the generate_toc tool
func (s *Server) handleGenerateToc(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document, fromFile, errResult := s.loadDocument(request)
	if errResult != nil {
		return errResult, nil
	}

	opts, errResult := s.generationOptions(request)
	if errResult != nil {
		return errResult, nil
	}

	inputFormat, errResult := s.resolveInputFormat(request, fromFile)
	if errResult != nil {
		return errResult, nil
	}
	opts.InputFormat = inputFormat

	out, err := toc.Generate(document, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	outline, err := toc.Outline(document, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	result := map[string]interface{}{
		"toc":           out,
		"headings":      len(outline),
		"input_format":  opts.InputFormat,
		"output_format": opts.OutputFormat,
	}
	if fromFile != "" {
		result["file_path"] = fromFile
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleListHeadings handles the list_headings tool
func (s *Server) handleListHeadings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document, fromFile, errResult := s.loadDocument(request)
	if errResult != nil {
		return errResult, nil
	}

	opts := s.cfg.AppConfig.Defaults.Options()
	opts.CustomAnchors = request.GetBool("custom_anchors", opts.CustomAnchors)

	inputFormat, errResult := s.resolveInputFormat(request, fromFile)
	if errResult != nil {
		return errResult, nil
	}
	opts.InputFormat = inputFormat

	outline, err := toc.Outline(document, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing failed: %v", err)), nil
	}

	result := map[string]interface{}{
		"headings":     outline,
		"total":        len(outline),
		"input_format": opts.InputFormat,
	}
	if fromFile != "" {
		result["file_path"] = fromFile
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleListFormats handles the list_formats tool
func (s *Server) handleListFormats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formats := make([]map[string]interface{}, 0, len(models.AllFormats()))
	for _, f := range models.AllFormats() {
		formats = append(formats, map[string]interface{}{
			"name":       f.String(),
			"extensions": f.Extensions(),
		})
	}

	result := map[string]interface{}{
		"formats":       formats,
		"total_formats": len(formats),
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleWatchStart handles the watch_start tool
func (s *Server) handleWatchStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filesParam := request.GetString("files", "")
	if filesParam == "" {
		return mcp.NewToolResultError("files parameter is required"), nil
	}

	var files []string
	for _, f := range strings.Split(filesParam, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return mcp.NewToolResultError("files parameter is required"), nil
	}

	opts, errResult := s.generationOptions(request)
	if errResult != nil {
		return errResult, nil
	}

	// An explicit input_format applies to every file; otherwise each
	// file's extension decides.
	var forcedFormat models.Format
	if name := request.GetString("input_format", ""); name != "" {
		f, err := models.ParseFormat(name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid input_format: %v", err)), nil
		}
		forcedFormat = f
	}

	targets := make([]watch.Target, 0, len(files))
	absFiles := make([]string, 0, len(files))
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cannot resolve %s: %v", file, err)), nil
		}

		if _, err := os.Stat(abs); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cannot watch %s: %v", file, err)), nil
		}

		// Refuse overlapping jobs early: two watchers of one input
		// would race on its output. CreateJob re-checks the claim
		// under its lock.
		if existing := s.jobManager.ActiveJobForFile(abs); existing != nil {
			result := map[string]interface{}{
				"status":  "already_watching",
				"message": fmt.Sprintf("file %s is already watched by another job", file),
				"job_id":  existing.ID,
			}
			return mcp.NewToolResultText(formatJSON(result)), nil
		}

		fileOpts := opts
		if forcedFormat != "" {
			fileOpts.InputFormat = forcedFormat
		} else {
			inFmt, errResult := s.inferFileFormat(abs)
			if errResult != nil {
				return errResult, nil
			}
			fileOpts.InputFormat = inFmt
		}

		targets = append(targets, watch.Target{
			InputPath:  abs,
			OutputPath: watch.DeriveOutputPath(abs, fileOpts.OutputFormat),
			Options:    fileOpts,
		})
		absFiles = append(absFiles, abs)
	}

	runner, err := watch.NewRunner(targets,
		s.cfg.AppConfig.Watch.DebounceDuration(),
		s.cfg.AppConfig.Watch.PollDuration(),
		s.log)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start watching: %v", err)), nil
	}

	job, holder := s.jobManager.CreateJob(absFiles, runner)
	if holder != nil {
		// Another job claimed one of the files since the check above.
		// The runner never started, so its watcher is released here.
		if err := runner.Close(); err != nil {
			s.log.Warnf("Closing unused watcher: %v", err)
		}

		held := make(map[string]bool, len(holder.Files))
		for _, f := range holder.Files {
			held[f] = true
		}
		name := files[0]
		for i, abs := range absFiles {
			if held[abs] {
				name = files[i]
				break
			}
		}

		result := map[string]interface{}{
			"status":  "already_watching",
			"message": fmt.Sprintf("file %s is already watched by another job", name),
			"job_id":  holder.ID,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	// Run the watch loop in the background
	go s.runWatchJob(job)

	result := map[string]interface{}{
		"status":  "started",
		"message": "Watch job started successfully",
		"job_id":  job.ID,
		"files":   absFiles,
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleWatchStatus handles the watch_status tool
func (s *Server) handleWatchStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	// The runner mutates job state as it reports in, so read a
	// snapshot rather than the live job.
	job, ok := s.jobManager.Snapshot(jobID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %s", utils.ErrJobNotFound, jobID)), nil
	}

	result := map[string]interface{}{
		"job_id":     job.ID,
		"files":      job.Files,
		"status":     job.Status,
		"started_at": job.StartedAt.Format(time.RFC3339),
		"targets":    s.jobManager.TargetStatuses(jobID),
	}

	if !job.StoppedAt.IsZero() {
		result["stopped_at"] = job.StoppedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.StoppedAt.Sub(job.StartedAt).Seconds()
	}

	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleWatchStop handles the watch_stop tool
func (s *Server) handleWatchStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	stopped, err := s.jobManager.StopJob(jobID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !stopped {
		result := map[string]interface{}{
			"status":  "already_stopped",
			"message": "Watch job was not running",
			"job_id":  jobID,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	result := map[string]interface{}{
		"status":  "stopped",
		"message": "Watch job stopped",
		"job_id":  jobID,
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// runWatchJob runs a watch job's loop in the background
func (s *Server) runWatchJob(job *Job) {
	if err := job.runner.Run(); err != nil {
		s.jobManager.UpdateStatus(job.ID, models.JobStatusFailed, err.Error())
		return
	}

	// Run returns nil after a stop request
	s.jobManager.UpdateStatus(job.ID, models.JobStatusStopped, "")
}

// loadDocument extracts the document text from the request, reading
// the file when file_path was given. fromFile is "" for inline text.
func (s *Server) loadDocument(request mcp.CallToolRequest) (document, fromFile string, errResult *mcp.CallToolResult) {
	doc := request.GetString("document", "")
	path := request.GetString("file_path", "")

	switch {
	case doc == "" && path == "":
		return "", "", mcp.NewToolResultError("either document or file_path is required")
	case doc != "" && path != "":
		return "", "", mcp.NewToolResultError("document and file_path are mutually exclusive")
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", path, err))
		}
		return string(data), path, nil
	}

	return doc, "", nil
}

// resolveInputFormat picks the parse format: explicit parameter first,
// then the file extension, then the configured default, then markdown.
func (s *Server) resolveInputFormat(request mcp.CallToolRequest, fromFile string) (models.Format, *mcp.CallToolResult) {
	if name := request.GetString("input_format", ""); name != "" {
		f, err := models.ParseFormat(name)
		if err != nil {
			return "", mcp.NewToolResultError(fmt.Sprintf("invalid input_format: %v", err))
		}
		return f, nil
	}

	if fromFile != "" {
		if f, err := models.DetectFormat(fromFile); err == nil {
			return f, nil
		}
	}

	if f := s.cfg.AppConfig.Defaults.EffectiveInputFormat(); f != "" {
		return f, nil
	}

	return models.FormatMarkdown, nil
}

// inferFileFormat resolves a watch target's format from its extension,
// falling back to the configured default.
func (s *Server) inferFileFormat(path string) (models.Format, *mcp.CallToolResult) {
	if f, err := models.DetectFormat(path); err == nil {
		return f, nil
	}
	if f := s.cfg.AppConfig.Defaults.EffectiveInputFormat(); f != "" {
		return f, nil
	}
	return "", mcp.NewToolResultError(fmt.Sprintf("cannot infer format of %s; pass input_format", path))
}

// generationOptions layers tool parameters over the configured
// defaults. The input format is left for the caller to resolve.
func (s *Server) generationOptions(request mcp.CallToolRequest) (toc.Options, *mcp.CallToolResult) {
	opts := s.cfg.AppConfig.Defaults.Options()

	if name := request.GetString("output_format", ""); name != "" {
		f, err := models.ParseFormat(name)
		if err != nil {
			return opts, mcp.NewToolResultError(fmt.Sprintf("invalid output_format: %v", err))
		}
		opts.OutputFormat = f
	}

	indent := request.GetInt("indent_width", opts.IndentWidth)
	if indent < 0 {
		indent = 0
	}
	opts.IndentWidth = indent

	opts.CustomAnchors = request.GetBool("custom_anchors", opts.CustomAnchors)
	opts.Title = request.GetString("title", opts.Title)

	return opts, nil
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
