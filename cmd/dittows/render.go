package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/marmos91/dittows/pkg/process"
	"github.com/marmos91/dittows/pkg/session"
	"github.com/marmos91/dittows/pkg/settings"
	"github.com/marmos91/dittows/pkg/tree"
)

// printTree writes an indented listing of n. Directories end in "/",
// open files are marked "+" and the active one "*".
func printTree(w io.Writer, n *tree.Node, s session.State) {
	printNode(w, n, s, 0)
}

func printNode(w io.Writer, n *tree.Node, s session.State, depth int) {
	marker := " "
	switch {
	case n.Path == s.ActivePath():
		marker = "*"
	case s.IsOpen(n.Path):
		marker = "+"
	}

	name := n.Name
	if n.IsDir() {
		name += "/"
	}
	fmt.Fprintf(w, "%s %s%s\n", marker, strings.Repeat("  ", depth), name)

	for _, c := range n.Children {
		printNode(w, c, s, depth+1)
	}
}

func printTabs(w io.Writer, s session.State) {
	open := s.OpenPaths()
	if len(open) == 0 {
		fmt.Fprintln(w, "No open tabs")
		return
	}
	for _, p := range open {
		marker := " "
		if p == s.ActivePath() {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, p)
	}
}

func printSettings(w io.Writer, s settings.Settings) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Project:\t%s\n", s.ProjectName)
	fmt.Fprintf(tw, "Public access:\t%s\n", onOff(s.PublicAccess))
	fmt.Fprintf(tw, "Auto restart:\t%s\n", onOff(s.AutoRestart))
	fmt.Fprintf(tw, "Notify on crash:\t%s\n", onOff(s.Notifications.OnCrash))
	fmt.Fprintf(tw, "Notify on limit:\t%s\n", onOff(s.Notifications.OnLimitReach))
	fmt.Fprintf(tw, "Notify on deploy:\t%s\n", onOff(s.Notifications.OnDeploy))
	_ = tw.Flush()

	if len(s.EnvVars) > 0 {
		fmt.Fprintln(w, "Environment:")
		for _, v := range s.EnvVars {
			fmt.Fprintf(w, "  %s=%s\n", v.Key, v.Value)
		}
	}
	if len(s.SSHKeys) > 0 {
		fmt.Fprintln(w, "SSH keys:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, k := range s.SSHKeys {
			fmt.Fprintf(tw, "  %s\t%s\n", k.ID, k.Name)
		}
		_ = tw.Flush()
	}
}

func printProcess(w io.Writer, p process.Process) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCPU\tMEMORY\tUPTIME")
	fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t%dMB\t%s\n", p.ID, p.Name, p.Status, p.CPU, p.Memory, p.Uptime)
	_ = tw.Flush()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
