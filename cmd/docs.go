package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootPage = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// child command without children
const childPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

// docType codes whether the command is the root or a child
type docType int

const (
	root docType = iota
	child
)

// meta is for describing the position/info for a command doc page
type meta struct {
	docType  docType
	title    string
	navOrder int
	parent   string
}

// map from the base Markdown file name to its page meta
var metaMap = map[string]meta{
	"rep":        {root, "rep", 0, ""},
	"rep_run":    {child, "run", 0, "rep"},
	"rep_mask":   {child, "mask", 1, "rep"},
	"rep_curate": {child, "curate", 2, "rep"},
	"rep_check":  {child, "check", 3, "rep"},
}

// docsCmd writes the command reference as Markdown
var docsCmd = &cobra.Command{
	Use:    "docs <dir>",
	Short:  "Write Markdown documentation of the commands",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return makeDocs(args[0])
	},
}

func init() {
	RootCmd.AddCommand(docsCmd)
}

// makeDocs parses the commands and outputs Markdown documentation files to dir
func makeDocs(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	RootCmd.DisableAutoGenTag = true
	if err := doc.GenMarkdownTreeCustom(RootCmd, dir, filePrepender, linkHandler); err != nil {
		return fmt.Errorf("failed to write docs: %w", err)
	}
	log.Infof("docs written to %s", dir)

	return nil
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(filename string) string {
	m, ok := metaMap[baseName(filename)]
	if !ok {
		return ""
	}

	switch m.docType {
	case root:
		return fmt.Sprintf(rootPage, m.title, m.navOrder)
	case child:
		return fmt.Sprintf(childPage, m.title, m.parent, m.navOrder)
	}
	return ""
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	base := baseName(filename)
	if base == "rep" {
		return "/"
	}
	return base
}

func baseName(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, path.Ext(name))
}
