package configuration

type Configuration struct {
	File       string `usage:"database file"`
	Schema     string `usage:"YAML file declaring the record types to decode"`
	Table      string `usage:"only show this table"`
	WriteBack  bool   `usage:"work on write-back copies of the tables"`
	Verbose    bool   `usage:"debug logging"`
	Version    bool   `usage:"show version and exit"`
	ShowConfig bool   `usage:"print config"`
}
