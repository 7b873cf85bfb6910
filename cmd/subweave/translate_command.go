package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subweave/internal/language"
	"subweave/internal/logging"
	"subweave/internal/services/llm"
	"subweave/internal/subtitles"
	"subweave/internal/translation"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var target string
	var tone string
	var layout string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "translate <input.srt>",
		Short: "Translate a subtitle file without going through the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			inputPath := strings.TrimSpace(args[0])
			source, err := subtitles.ParseSRTFile(inputPath)
			if err != nil {
				return fmt.Errorf("parse subtitle file: %w", err)
			}

			if target == "" {
				target = cfg.Translation.TargetLanguage
			}
			profile := cfg.StyleProfile()
			if tone != "" {
				profile.Tone = subtitles.Tone(strings.ToLower(strings.TrimSpace(tone)))
			}

			persona, err := translation.LoadPersona(cfg.Translation.PersonaFile)
			if err != nil {
				return fmt.Errorf("load persona: %w", err)
			}

			var translator translation.Translator
			if interactive {
				translator = translation.NewInteractiveTranslator(cmd.InOrStdin(), cmd.OutOrStdout())
			} else {
				if cfg.LLM.APIKey == "" {
					return fmt.Errorf("llm.api_key is not set; configure it or pass --interactive")
				}
				llmCfg := cfg.GetLLM()
				client := llm.NewClient(llm.Config{
					APIKey:         llmCfg.APIKey,
					BaseURL:        llmCfg.BaseURL,
					Model:          llmCfg.Model,
					TimeoutSeconds: llmCfg.TimeoutSeconds,
				})
				translator = translation.NewHostedTranslator(client, logging.NewNop())
			}

			opts := translation.Options{
				SourceLanguage:    cfg.Translation.SourceLanguage,
				TargetLanguage:    target,
				WindowSize:        cfg.Translation.WindowSize,
				Overlap:           cfg.Translation.ContextOverlap,
				Workers:           cfg.Translation.Workers,
				RequestsPerMinute: cfg.Translation.RequestsPerMinute,
				RepairPasses:      cfg.Translation.RepairPasses,
				Profile:           profile,
				Persona:           persona,
			}
			if interactive {
				// A terminal conversation holds one exchange at a time.
				opts.Workers = 1
				opts.RequestsPerMinute = 0
			}
			engine, err := translation.NewEngine(translator, opts, logging.NewNop())
			if err != nil {
				return fmt.Errorf("build translation engine: %w", err)
			}

			result, err := engine.Translate(cmd.Context(), source)
			if err != nil {
				return fmt.Errorf("translate: %w", err)
			}

			base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
			translatedPath := fmt.Sprintf("%s.%s.srt", base, language.ToISO2(target))
			if err := result.Transcript.WriteFile(translatedPath); err != nil {
				return fmt.Errorf("write translated subtitles: %w", err)
			}

			bilingualPath := base + ".bi.srt"
			if err := writeBilingualSRT(result.Transcript, source, bilingualPath); err != nil {
				return fmt.Errorf("write bilingual subtitles: %w", err)
			}

			assPath := base + ".ass"
			track, err := subtitles.Compose(result.Transcript, source, subtitles.ParseLayout(layout))
			if err != nil {
				return fmt.Errorf("compose presentation track: %w", err)
			}
			if err := os.WriteFile(assPath, subtitles.RenderASS(track, profile), 0o644); err != nil {
				return fmt.Errorf("write styled subtitles: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Translated %d blocks (%d chunks, %d repair passes)\n",
				source.BlockCount(), result.Chunks, result.RepairPasses)
			if len(result.Untranslated) > 0 {
				fmt.Fprintf(out, "Warning: %d block(s) remain untranslated\n", len(result.Untranslated))
			}
			fmt.Fprintln(out, "Wrote", translatedPath)
			fmt.Fprintln(out, "Wrote", bilingualPath)
			fmt.Fprintln(out, "Wrote", assPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Target language (defaults to translation.target_language)")
	cmd.Flags().StringVar(&tone, "tone", "", "Tone override: casual, formal, or edgy")
	cmd.Flags().StringVar(&layout, "layout", string(subtitles.LayoutBilingual), "Styled output layout: bilingual, primary_only, or secondary_only")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for translations on stdin instead of calling the hosted LLM")
	return cmd
}

// writeBilingualSRT stacks the original line under each translated line.
func writeBilingualSRT(translated, source *subtitles.Transcript, path string) error {
	merged := translated.Clone()
	for i := range merged.Blocks {
		if i >= len(source.Blocks) {
			break
		}
		original := strings.TrimSpace(strings.Join(source.Blocks[i].Lines, "\n"))
		if original == "" {
			continue
		}
		merged.Blocks[i].Lines = append(merged.Blocks[i].Lines, strings.Split(original, "\n")...)
	}
	return merged.WriteFile(path)
}
