package weld

import (
	"github.com/xyproto/weld/internal/archive"
	"github.com/xyproto/weld/internal/elfobj"
	"github.com/xyproto/weld/internal/frontend"
)

func registerDefaultFrontEnds(reg *frontend.Registry) {
	reg.RegisterArchive(archive.New())
	reg.RegisterObject(elfobj.New())
}
