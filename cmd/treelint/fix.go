package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"treelint/internal/engine"
	"treelint/internal/observ"
	"treelint/internal/optree"
	"treelint/internal/rewrite"
	"treelint/internal/rules"
	"treelint/internal/source"
	"treelint/internal/treefile"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <file" + engine.TreeFileSuffix + ">",
	Short: "Apply structural fixes to a tree document",
	Long:  "Run the rules, propose the minimal structural edit for each finding, and rewrite the document according to the chosen strategy.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply fixes until no finding remains")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("rule", "", "only fix findings of a specific rule")
	fixCmd.Flags().String("output", "", "write the rewritten document here instead of in place")
	fixCmd.Flags().Bool("dry-run", false, "report the planned edits without writing")
}

// applied is one edit that made it into the rewritten tree.
type applied struct {
	plan *rewrite.Plan
	span source.Span
}

// skipped is a finding the fixer could not or would not act on.
type skipped struct {
	node   optree.NodeID
	ruleID string
	reason string
}

func runFix(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnce, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	if applyAll && applyOnce {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}
	onlyRule, err := cmd.Flags().GetString("rule")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = targetPath
	}

	registry := rules.Default()
	cfg, err := resolveConfig(cmd, targetPath, registry)
	if err != nil {
		return err
	}
	if onlyRule != "" {
		if _, ok := registry.Lookup(onlyRule); !ok {
			return fmt.Errorf("unknown rule %q", onlyRule)
		}
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("fix: %s is a directory; fix one document at a time", targetPath)
	}

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	timer := observ.NewTimer()

	fileSet := source.NewFileSet()
	stopLoad := timer.Phase("load")
	tree, fileID, err := treefile.Load(targetPath, fileSet)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	stopLoad(fmt.Sprintf("%d node(s)", tree.Len()))

	opts := engine.Options{Registry: registry, Config: cfg}
	stopFix := timer.Phase("fix")
	tree, appliedEdits, skippedEdits, err := fixTree(tree, opts, onlyRule, applyAll)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	stopFix(fmt.Sprintf("%d applied, %d skipped", len(appliedEdits), len(skippedEdits)))

	reportFixes(cmd, fileSet, appliedEdits, skippedEdits)
	if showTimings {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", targetPath, timer.Report())
	}

	if len(appliedEdits) == 0 || dryRun {
		return nil
	}
	doc := treefile.FromTree(tree, fileSet.Get(fileID))
	if err := treefile.Save(outputPath, doc); err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outputPath)
	return nil
}

// fixTree runs the detect-propose-apply loop. Each pass applies one plan
// and re-checks the rewritten tree, so plans never conflict with each
// other. The pass limit guards against a proposal that fails to remove
// the finding it was proposed for.
func fixTree(tree *optree.Tree, opts engine.Options, onlyRule string, applyAll bool) (*optree.Tree, []applied, []skipped, error) {
	var (
		appliedEdits []applied
		skippedEdits []skipped
	)

	maxPasses := 1
	if applyAll {
		maxPasses = int(tree.Len()) + 1
	}

	for pass := 0; pass < maxPasses; pass++ {
		res, err := engine.Check(tree, opts)
		if err != nil {
			return tree, appliedEdits, skippedEdits, err
		}

		var plan *rewrite.Plan
		for _, v := range res.Violations.Items() {
			if onlyRule != "" && v.RuleID != onlyRule {
				continue
			}
			if alreadySkipped(skippedEdits, v.Node, v.RuleID) {
				continue
			}
			p, err := rewrite.Propose(v, tree)
			if err != nil {
				if errors.Is(err, rewrite.ErrStaleReference) {
					skippedEdits = append(skippedEdits, skipped{node: v.Node, ruleID: v.RuleID, reason: err.Error()})
					continue
				}
				return tree, appliedEdits, skippedEdits, err
			}
			plan = p
			break
		}
		if plan == nil {
			break
		}

		next, err := rewrite.Apply(tree, []*rewrite.Plan{plan})
		if err != nil {
			skippedEdits = append(skippedEdits, skipped{node: plan.Target, ruleID: plan.RuleID, reason: err.Error()})
			break
		}
		appliedEdits = append(appliedEdits, applied{plan: plan, span: plan.Span})
		tree = next
	}
	return tree, appliedEdits, skippedEdits, nil
}

// alreadySkipped prevents a finding the fixer cannot act on from looping
// forever under --all. Node IDs are stable across rewrites, so the pair
// identifies the finding.
func alreadySkipped(skips []skipped, node optree.NodeID, ruleID string) bool {
	for _, s := range skips {
		if s.node == node && s.ruleID == ruleID {
			return true
		}
	}
	return false
}

// appliedExtent is the smallest span covering every applied edit. All
// edits come from one document, so the spans share a file.
func appliedExtent(edits []applied) source.Span {
	extent := edits[0].span
	for _, e := range edits[1:] {
		extent = extent.Cover(e.span)
	}
	return extent
}

func reportFixes(cmd *cobra.Command, fileSet *source.FileSet, appliedEdits []applied, skippedEdits []skipped) {
	out := cmd.OutOrStdout()
	if len(appliedEdits) > 0 {
		fmt.Fprintf(out, "Applied %d fix(es):\n", len(appliedEdits))
		for _, item := range appliedEdits {
			start, _ := fileSet.Resolve(item.span)
			fmt.Fprintf(out, "  %s [%s] at %s:%d:%d (%s node %d)\n",
				item.plan.Title, item.plan.RuleID,
				fileSet.Get(item.span.File).Path, start.Line, start.Col,
				item.plan.Op, item.plan.Target)
		}
		extent := appliedExtent(appliedEdits)
		start, end := fileSet.Resolve(extent)
		fmt.Fprintf(out, "Rewrote %s:%d:%d-%d:%d\n",
			fileSet.Get(extent.File).Path, start.Line, start.Col, end.Line, end.Col)
	} else {
		fmt.Fprintln(out, "No applicable fixes found.")
	}
	if len(skippedEdits) > 0 {
		fmt.Fprintln(out, "Skipped fixes:")
		for _, skip := range skippedEdits {
			fmt.Fprintf(out, "  [%s]: %s\n", skip.ruleID, skip.reason)
		}
	}
}
