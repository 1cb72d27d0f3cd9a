package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"speakerline/internal/preflight"
	"speakerline/internal/services"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			problems := 0

			lines := renderSectionHeader("Configuration", colorize)
			lines = append(lines, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			lines = append(lines, renderStatusLine("Run ledger", statusInfo, st.Path(), colorize))
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			for _, dep := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				kind, msg := statusOK, dep.Path
				if dep.Version != "" {
					msg = fmt.Sprintf("%s (%s)", dep.Path, dep.Version)
				}
				if !dep.Available {
					msg = dep.Detail
					if dep.Optional {
						kind = statusWarn
					} else {
						kind = statusError
						problems++
					}
				}
				lines = append(lines, renderStatusLine(dep.Name, kind, msg, colorize))
			}
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Preflight", colorize)...)
			for _, r := range preflight.RunAll(cmd.Context(), cfg, st) {
				kind := statusOK
				if !r.Passed {
					kind = statusError
					problems++
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if problems > 0 {
				return services.Wrap(services.ErrConfiguration, "doctor", "checks",
					fmt.Sprintf("%d problem(s) found", problems), nil)
			}
			fmt.Fprintln(out, "\nAll checks passed")
			return nil
		},
	}
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ansiBlue
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
