// Package category assigns an opaque label to a command based on the
// program it invokes. Labels group history for filtering and stats; the
// store treats them as plain strings and never validates them.
package category

import (
	"sort"
	"strings"
)

// Other is the label for commands no rule matches.
const Other = "other"

// Categorizer maps a command's first word to a category label.
type Categorizer struct {
	rules map[string]string
}

// New returns a Categorizer with the built-in rule table.
func New() *Categorizer {
	rules := make(map[string]string)

	add := func(label string, cmds ...string) {
		for _, c := range cmds {
			rules[c] = label
		}
	}

	add("git", "git", "gh")
	add("docker", "docker", "docker-compose", "podman")
	add("package", "npm", "yarn", "pnpm", "cargo", "pip", "pip3", "gem", "bundle",
		"apt", "apt-get", "brew", "yum", "dnf", "pacman")
	add("file", "ls", "cd", "mkdir", "rm", "rmdir", "cp", "mv", "cat", "less",
		"more", "head", "tail", "touch", "find", "grep", "awk", "sed")
	add("network", "curl", "wget", "ping", "ssh", "scp", "rsync", "nc", "netcat",
		"telnet", "ftp", "sftp")
	add("build", "make", "cmake", "ninja", "bazel", "gradle", "mvn", "ant")
	add("database", "psql", "mysql", "sqlite3", "mongo", "redis-cli", "mongosh")
	add("kubernetes", "kubectl", "k9s", "helm", "minikube", "kind")
	add("cloud", "aws", "gcloud", "az", "terraform", "terragrunt", "pulumi")
	add("editor", "vim", "nvim", "nano", "emacs", "code", "subl")
	add("system", "sudo", "systemctl", "service", "journalctl", "top", "htop",
		"ps", "kill", "killall", "df", "du", "free", "uptime")
	add("vcs", "svn", "hg", "bzr")

	return &Categorizer{rules: rules}
}

// Categorize labels a command by its first word, with any path prefix
// stripped ("/usr/bin/git status" → "git").
func (c *Categorizer) Categorize(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Other
	}
	name := fields[0]
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if label, ok := c.rules[name]; ok {
		return label
	}
	return Other
}

// Categories returns the distinct labels the rule table can produce, sorted.
func (c *Categorizer) Categories() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, label := range c.rules {
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels
}
