package filter

/*
Here the Env used in the log event filters is defined.
Once this struct is fixed, it should not be changed, otherwise configured filters may not compile any more
(f.e. if properties are renamed etc.)
*/

type Actor struct {
	CharName string
	OOCName  string
	IPID     string
	HWID     string
	UID      string
}

type Env struct {
	Actor
	Kind      string
	Time      int64
	Area      string
	Hub       string
	Message   string
	Moderator string
	Target    string
	Command   string
	Args      string
	Duration  string
	Success   bool

	AsInt         func(string) int64
	AsFloat       func(string) float64
	AsStringSlice func(string) []string
	HasPrefix     func(string, string) bool
}
