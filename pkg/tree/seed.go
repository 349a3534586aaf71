package tree

// DefaultRootPath is the fixed root path of a workspace when none is
// configured.
const DefaultRootPath = "/home/python/app"

// DefaultRootName is the display name of the default root directory.
const DefaultRootName = "project"

const (
	seedMain = "import os\nimport time\n\n" +
		"print(\"\U0001F680 Starting PyHost Worker...\")\n" +
		"while True:\n" +
		"    print(f\"Ping from {os.name} at {time.ctime()}\")\n" +
		"    time.sleep(10)"
	seedRequirements = "discord.py-self\nPyNaCl\nrequests"
	seedConfig       = "{\n  \"version\": \"1.0.0\",\n  \"env\": \"production\"\n}"
)

// SeedMainFile is the name of the file opened by default in a fresh
// workspace.
const SeedMainFile = "main.py"

// Seed returns the built-in tree used when nothing has been persisted:
//
//	<rootPath>/
//	  main.py
//	  requirements.txt
//	  utils/
//	    config.json
func Seed(rootPath, rootName string) Tree {
	utils := ChildPath(rootPath, "utils")
	return Tree{root: &Node{
		ID:   "root",
		Name: rootName,
		Kind: KindDirectory,
		Path: rootPath,
		Children: []*Node{
			{ID: "1", Name: SeedMainFile, Kind: KindFile, Path: ChildPath(rootPath, SeedMainFile), Content: seedMain},
			{ID: "2", Name: "requirements.txt", Kind: KindFile, Path: ChildPath(rootPath, "requirements.txt"), Content: seedRequirements},
			{ID: "3", Name: "utils", Kind: KindDirectory, Path: utils, Children: []*Node{
				{ID: "4", Name: "config.json", Kind: KindFile, Path: ChildPath(utils, "config.json"), Content: seedConfig},
			}},
		},
	}}
}
