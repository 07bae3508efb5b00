package app

import (
	"io"

	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/modules/clean"
	"github.com/specialistvlad/assetgrid/modules/compress"
	"github.com/specialistvlad/assetgrid/modules/concat"
	"github.com/specialistvlad/assetgrid/modules/dest"
	"github.com/specialistvlad/assetgrid/modules/exec"
	"github.com/specialistvlad/assetgrid/modules/imagemin"
	"github.com/specialistvlad/assetgrid/modules/minify"
	"github.com/specialistvlad/assetgrid/modules/print"
	"github.com/specialistvlad/assetgrid/modules/reload"
	"github.com/specialistvlad/assetgrid/modules/rename"
	"github.com/specialistvlad/assetgrid/modules/sass"
	"github.com/specialistvlad/assetgrid/modules/sassglob"
)

// coreModules is the definitive list of all step modules compiled into the
// assetgrid binary.
func coreModules(outW io.Writer) []registry.Module {
	return []registry.Module{
		&clean.Module{},
		&compress.Module{},
		&concat.Module{},
		&dest.Module{},
		&exec.Module{},
		&imagemin.Module{},
		&minify.Module{},
		&print.Module{Out: outW},
		&reload.Module{},
		&rename.Module{},
		&sass.Module{},
		&sassglob.Module{},
	}
}
