/*
Package dsl provides a fluent builder for declaring state machines in Go code.

It is an alternative to YAML or JSON definition files, useful for tests and for
machines generated at runtime. States keep the order in which they are added.

Example usage:

	b := dsl.New("normal")

	b.Add("normal").
		On("study", "hungry").
		On("get_tired", "sleeping")

	b.Add("hungry").On("eat", "normal")
	b.Add("sleeping").On("wake_up", "normal")

	loader, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	cfg, _ := loader.Load(ctx)
	sm, _ := fsm.New(cfg)
*/
package dsl
