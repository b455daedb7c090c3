// Package testutil provides shared fixtures for descriptor patching tests.
package testutil

import "strings"

// Fixture constants for the Harbor descriptor below. ContentView.swift is
// registered in all four section categories, so it works as an anchor.
const (
	AnchorFile = "ContentView.swift"
	Phase      = "Sources"
)

// Descriptor returns a minimal but structurally faithful project
// descriptor: two registered Swift files, a Views group, and a Sources
// compile phase. Tests write it to a temp file or patch it in memory.
func Descriptor() string {
	return harborDescriptor
}

// DropLine returns text with the first line containing substr removed.
// Tests use it to build descriptors with a missing anchor line.
func DropLine(text, substr string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, substr) {
			return strings.Join(append(lines[:i:i], lines[i+1:]...), "\n")
		}
	}
	return text
}

const harborDescriptor = `// !$*UTF8*$!
{
	archiveVersion = 1;
	classes = {
	};
	objectVersion = 56;
	objects = {

/* Begin PBXBuildFile section */
		7A1F02C39B4D5E6F8A90B101 /* HarborApp.swift in Sources */ = {isa = PBXBuildFile; fileRef = 7A1F02C39B4D5E6F8A90B102 /* HarborApp.swift */; };
		7A1F02C39B4D5E6F8A90B103 /* ContentView.swift in Sources */ = {isa = PBXBuildFile; fileRef = 7A1F02C39B4D5E6F8A90B104 /* ContentView.swift */; };
/* End PBXBuildFile section */

/* Begin PBXFileReference section */
		7A1F02C39B4D5E6F8A90B102 /* HarborApp.swift */ = {isa = PBXFileReference; lastKnownFileType = sourcecode.swift; path = HarborApp.swift; sourceTree = "<group>"; };
		7A1F02C39B4D5E6F8A90B104 /* ContentView.swift */ = {isa = PBXFileReference; lastKnownFileType = sourcecode.swift; path = ContentView.swift; sourceTree = "<group>"; };
/* End PBXFileReference section */

/* Begin PBXGroup section */
		7A1F02C39B4D5E6F8A90B105 /* Views */ = {
			isa = PBXGroup;
			children = (
				7A1F02C39B4D5E6F8A90B104 /* ContentView.swift */,
			);
			path = Views;
			sourceTree = "<group>";
		};
/* End PBXGroup section */

/* Begin PBXSourcesBuildPhase section */
		7A1F02C39B4D5E6F8A90B106 /* Sources */ = {
			isa = PBXSourcesBuildPhase;
			buildActionMask = 2147483647;
			files = (
				7A1F02C39B4D5E6F8A90B101 /* HarborApp.swift in Sources */,
				7A1F02C39B4D5E6F8A90B103 /* ContentView.swift in Sources */,
			);
			runOnlyForDeploymentPostprocessing = 0;
		};
/* End PBXSourcesBuildPhase section */
	};
	rootObject = 7A1F02C39B4D5E6F8A90B100 /* Project object */;
}
`
