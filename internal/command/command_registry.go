package command

import "sort"

var registry = map[string]Command{}

func Register(cmd Command) {
	registry[cmd.Name()] = cmd
}

func Get(name string) (Command, bool) {
	cmd, ok := registry[name]
	return cmd, ok
}

// All returns every registered command sorted by name, so bulk slash
// registration is deterministic across restarts.
func All() []Command {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]Command, 0, len(names))
	for _, name := range names {
		list = append(list, registry[name])
	}
	return list
}
