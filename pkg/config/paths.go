package config

// Application identity
const (
	AppName       = "absence-desk"
	AppVersion    = "1.0.0"
	AppIdentifier = "absence-desk"
)

// Bundled asset locations, relative to the resource directory
const (
	AssetsDir = "assets"

	EmployeesAssetPath = AssetsDir + "/employees.json"
	CodesAssetPath     = AssetsDir + "/codes.json"
)

// Logical asset names
const (
	AssetEmployees = "employees"
	AssetCodes     = "codes"
)

// Invocable command names exposed to the host shell
const (
	CommandReadEmployeeJSON = "read_employee_json"
	CommandReadCodeJSON     = "read_code_json"
)

// Host built-in methods and notifications
const (
	MethodInitialize    = "initialize"
	MethodInitialized   = "notifications/initialized"
	MethodHostCommands  = "host/commands"
	EventAssetsChanged  = "assets/changed"
	PluginCommandPrefix = "plugin:"
)

// JSONExtension is the extension of every bundled asset
const JSONExtension = ".json"
