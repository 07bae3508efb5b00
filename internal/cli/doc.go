// Package cli builds the assetgrid command tree. It merges command-line
// flags with the settings file and ASSETGRID_* variables, runs the selected
// units and maps every failure to a process exit code.
package cli
