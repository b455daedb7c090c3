package plan

// Default returns the built-in plan the tool was originally written
// around: register the two viewer panes in the Rawtass project,
// anchored on RawImageViewer.swift. `pbxpatch apply` uses it when no
// plan file is given.
func Default() Plan {
	return Plan{
		Project: "/Users/espen/git/rawtass/Rawtass.xcodeproj/project.pbxproj",
		Anchor:  "RawImageViewer.swift",
		Phase:   "Sources",
		Files:   []string{"FileBrowser.swift", "ImageViewerPane.swift"},
	}
}
