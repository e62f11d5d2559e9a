package terminal

type commandGroup uint8

const (
	otherCmds commandGroup = iota
	dataCmds
	allocCmds
)

type commandGroupDescription struct {
	description string
	group       commandGroup
}

var commandGroupDescriptions = []commandGroupDescription{
	{"Reading and writing memory", dataCmds},
	{"Allocating memory", allocCmds},
	{"Other commands", otherCmds},
}
