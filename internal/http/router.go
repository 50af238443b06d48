package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoutes 注册所有 Handler
// Method dispatch happens inside each handler's ServeHTTP; the mux only
// owns path prefixes.
func (r *Router) RegisterRoutes(
	rooms *RoomHandler,
	connections *ConnectionHandler,
	importExport *ImportExportHandler,
	jobs *JobHandler,
	mappings *MappingHandler,
	admin *AdminHandler,
	system *SystemHandler,
) {
	// rooms
	r.HandleHandler("/data/api/v1/projector/rooms", rooms)
	r.HandleHandler("/data/api/v1/projector/rooms/", rooms)
	r.HandleHandler("/data/api/v1/turar/rooms", rooms)
	r.HandleHandler("/data/api/v1/turar/rooms/", rooms)
	r.HandleHandler("/data/api/v1/departments", rooms)

	// connections
	r.HandleHandler("/data/api/v1/connections", connections)
	r.HandleHandler("/data/api/v1/connections/", connections)

	// import / export
	r.HandleHandler("/data/api/v1/import/", importExport)
	r.HandleHandler("/data/api/v1/export/projector.xlsx", importExport)

	// admin jobs
	r.HandleHandler("/admin/api/v1/jobs/", jobs)

	// mappings
	r.HandleHandler("/admin/api/v1/mappings", mappings)
	r.HandleHandler("/admin/api/v1/mappings/", mappings)

	// equipment + users
	r.HandleHandler("/admin/api/v1/equipment", admin)
	r.HandleHandler("/admin/api/v1/equipment/", admin)
	r.HandleHandler("/admin/api/v1/users", admin)
	r.HandleHandler("/admin/api/v1/users/", admin)

	// system
	r.HandleHandler("/data/api/v1/cache/versions", system)
	r.HandleHandler("/health", system)
}
