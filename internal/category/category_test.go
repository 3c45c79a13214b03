package category

import "testing"

func TestCategorize(t *testing.T) {
	c := New()

	cases := []struct {
		command, want string
	}{
		{"git status", "git"},
		{"gh pr list", "git"},
		{"docker ps -a", "docker"},
		{"npm install --save-dev typescript", "package"},
		{"ls -la /tmp", "file"},
		{"curl -s https://example.com", "network"},
		{"make -j8", "build"},
		{"kubectl get pods", "kubernetes"},
		{"terraform plan", "cloud"},
		{"vim main.go", "editor"},
		{"sudo systemctl restart nginx", "system"},
		{"svn update", "vcs"},
		{"frobnicate --all", Other},
		{"", Other},
		{"   ", Other},
	}
	for _, tc := range cases {
		if got := c.Categorize(tc.command); got != tc.want {
			t.Errorf("Categorize(%q) = %q, want %q", tc.command, got, tc.want)
		}
	}
}

func TestCategorizeStripsPathPrefix(t *testing.T) {
	c := New()
	if got := c.Categorize("/usr/bin/git status"); got != "git" {
		t.Fatalf("expected path prefix stripped, got %q", got)
	}
	if got := c.Categorize("./node_modules/.bin/vim"); got != "editor" {
		t.Fatalf("expected relative path prefix stripped, got %q", got)
	}
}

func TestCategories(t *testing.T) {
	c := New()
	labels := c.Categories()
	if len(labels) == 0 {
		t.Fatal("expected at least one label")
	}
	for i := 1; i < len(labels); i++ {
		if labels[i-1] >= labels[i] {
			t.Fatalf("labels not sorted/deduped: %v", labels)
		}
	}
}
