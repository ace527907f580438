package flags

const Verbose = `verbose`
const VerboseShort = `v`
const Quiet = `quiet`
const QuietShort = `q`
const Thorough = `thorough`
const ThoroughShort = `t`
const Directory = `directory`
const DirectoryShort = `C`
const InitManifest = `manifest`
const TreeOnlyEnabled = `enabled`
