package gen

import (
	"github.com/RAKUDEJI/wacli/canon"
	"github.com/RAKUDEJI/wacli/registry"
	"github.com/RAKUDEJI/wacli/witapi"
)

// payload is the static side of a registry module.
type payload struct {
	img      *canon.Image
	commands uint32 // list-commands return area
	schemas  uint32 // list-schemas return area
	app      uint32 // get-app-meta record

	// unknown stores unknown-command(name) with the name taken from run's
	// first two parameters.
	unknown *canon.Node
	result  canon.Info
}

// buildPayload freezes every value the module returns and lays the frozen
// trees out in one image at address 0.
func buildPayload(reg *registry.Registry) (*payload, error) {
	c := canon.NewCalculator()

	metas := make(canon.List, len(reg.Commands))
	schemas := make(canon.List, len(reg.Commands))
	for i := range reg.Commands {
		metas[i] = reg.Commands[i].Meta().Value()
		schemas[i] = reg.Commands[i].Schema().Value()
	}

	metaNode, err := c.Freeze(witapi.CommandMetaListType(), metas)
	if err != nil {
		return nil, err
	}
	schemaNode, err := c.Freeze(witapi.CommandSchemaListType(), schemas)
	if err != nil {
		return nil, err
	}
	appNode, err := c.Freeze(witapi.AppMetaType(), reg.App.Meta().Value())
	if err != nil {
		return nil, err
	}
	unknown, err := c.Freeze(witapi.CommandResultType(),
		canon.Err(canon.Case{Index: uint32(witapi.ErrUnknownCommand), Val: canon.DynString{Ptr: paramNamePtr, Len: paramNameLen}}))
	if err != nil {
		return nil, err
	}
	result, err := c.Calculate(witapi.CommandResultType())
	if err != nil {
		return nil, err
	}

	b := canon.NewImageBuilder(0)
	// Dispatch keys first so names sit at the front of the table.
	for i := range reg.Commands {
		for _, k := range reg.Commands[i].Keys() {
			b.InternString(k)
		}
	}
	hMeta := b.Add(metaNode)
	hSchema := b.Add(schemaNode)
	hApp := b.Add(appNode)
	b.Intern(unknown)

	img, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &payload{
		img:      img,
		commands: img.Addr(hMeta),
		schemas:  img.Addr(hSchema),
		app:      img.Addr(hApp),
		unknown:  unknown,
		result:   result,
	}, nil
}
