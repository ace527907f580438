package quire

import (
	"fmt"

	"github.com/n2code/quire/internal/manifest"
	out "github.com/n2code/quire/internal/output"
)

func (q *quire) PrintTree(onlyEnabled bool) error {
	m, err := q.Manifest()
	if err != nil {
		return err
	}
	previous, err := q.loadRecord()
	if err != nil {
		return err
	}
	q.store.Forget()
	report, err := classify(m, q.store, previous)
	if err != nil {
		return err
	}
	statusByLine := make(map[int]FragmentStatus)
	for _, entry := range report.Entries {
		if entry.Line > 0 {
			statusByLine[entry.Line] = entry.Status
		}
	}

	label := func(entry *manifest.Entry) string {
		status := statusByLine[entry.Line]
		prefix := ""
		if status != Included {
			prefix = fmt.Sprintf("[%c] ", status)
		}
		return q.printer.Sprintf("%s%s%s%s", colorForStatus(status), prefix, entry.Path, out.Reset)
	}

	tree := out.NewVisualTree(q.displayablePath(q.config.Project.Manifest, true, false))
	var addEntries func(parent out.VisualTree, entries []*manifest.Entry)
	addEntries = func(parent out.VisualTree, entries []*manifest.Entry) {
		for _, entry := range entries {
			if !entry.Enabled && onlyEnabled {
				addEntries(parent, entry.Children) //children of a disabled entry stay enabled
				continue
			}
			addEntries(parent.Add(label(entry)), entry.Children)
		}
	}
	for _, section := range m.Sections {
		if !section.Declared {
			continue
		}
		addEntries(tree.Add(string(section.Name)+":"), section.Entries)
	}

	if !onlyEnabled {
		unreferenced := report.Bucket(Orphaned)
		unreferenced = append(unreferenced, report.Bucket(Homonym)...)
		if len(unreferenced) > 0 {
			files := tree.Add(fmt.Sprintf("(%d unreferenced %s)", len(unreferenced), out.Plural(len(unreferenced), "fragment", "fragments"))).Files()
			for _, entry := range unreferenced {
				prefix := q.printer.Sprintf("%s[%c] ", colorForStatus(entry.Status), entry.Status)
				files.InsertPath(entry.Path, prefix, q.printer.Sprintf("%s", out.Reset))
			}
		}
	}

	q.Print(out.Required, "%s", tree.Render())
	return nil
}

func (q *quire) PrintStatus() error {
	report, err := q.Status()
	if err != nil {
		return err
	}

	q.Print(out.Verbose, "Manifest: %s\n", q.displayablePath(q.config.Project.Manifest, true, false))
	q.Print(out.Normal, "\n")

	//present grouped entries of each status in a deliberate order to optimize the workflow
	for _, status := range []FragmentStatus{
		Included, // first present what is merely for acknowledgement -> not actionable
		Disabled, // same for this status

		Orphaned, // then present waste to encourage clean up
		Homonym,  // (yet another type of waste, possibly mistaken for the included namesake)
		Repeated, // then suspicious manifest entries

		New,     // then present what the next build will add
		Changed, // and what it will update

		Missing, // finally, present what breaks the next build
	} {
		bucket := report.Bucket(status)
		if len(bucket) == 0 {
			continue //to hide empty buckets
		}

		//bucket header
		class := out.Normal
		if status == Included {
			class = out.Verbose //unchanged fragments are noise unless asked for
		}
		q.Print(class, " %s (%d %s)\n", status, len(bucket), out.Plural(len(bucket), "fragment", "fragments"))

		//bucket content
		for _, entry := range bucket {
			position := ""
			if entry.Line > 0 {
				position = fmt.Sprintf(" (line %d)", entry.Line)
			}
			q.Print(class, "  ")
			if status == Included {
				q.Print(out.Verbose, "%s[%c] %s%s%s\n", colorForStatus(status), rune(status), entry.Path, position, out.Reset)
			} else {
				q.Print(out.Required, "%s[%c] %s%s%s\n", colorForStatus(status), rune(status), entry.Path, position, out.Reset)
			}
			switch {
			case status == Homonym:
				q.Print(out.Normal, "      same name as: %s\n", entry.Relation)
			case entry.Err != nil:
				q.Print(out.Error, "%s%s%s\n", colorForStatus(Missing), out.Indent(6, entry.Err.Error()), out.Reset)
			}
		}
		q.Print(class, "\n")
	}

	switch {
	case report.NeverBuilt:
		q.Print(out.Normal, " Not built yet.\n\n")
	case report.ManifestEdit:
		q.Print(out.Normal, " Manifest sequence changed since the last build.\n\n")
	}
	if !report.HasChanges() {
		q.Print(out.Normal, " Manuscript in sync with the last build.\n\n")
	}
	return nil
}

func (q *quire) PrintSequence() error {
	m, err := q.Manifest()
	if err != nil {
		return err
	}
	count := 0
	for _, section := range m.Sections {
		if !section.Declared {
			continue
		}
		q.Print(out.Normal, "%s%s:%s\n", out.Bold, section.Name, out.Reset)
		for _, ref := range section.Refs() {
			count++
			q.Print(out.Normal, "%4d. ", count)
			q.Print(out.Required, "%s", ref.Path)
			q.Print(out.Verbose, " %s(%s)%s", out.Dim, ref.Position, out.Reset)
			q.Print(out.Required, "\n")
		}
	}
	q.Print(out.Normal, "\n%d %s in total\n", count, out.Plural(count, "fragment", "fragments"))
	return nil
}
