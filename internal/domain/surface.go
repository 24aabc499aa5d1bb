package domain

// Surface is a rendering terminal of the navigation state machine.
type Surface string

const (
	SurfacePublicApp       Surface = "public_app"
	SurfaceOperatorLogin   Surface = "operator_login"
	SurfaceOperatorConsole Surface = "operator_console"
	SurfaceMasterConsole   Surface = "master_console"
	SurfaceNotFound        Surface = "not_found"
)

// Navigation fragment contract. Any fragment beginning with
// FragmentOperator other than FragmentOperatorLogin carries operator
// intent.
const (
	FragmentMaster        = "master"
	FragmentOperator      = "admin"
	FragmentOperatorLogin = "admin/login"
)
