package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "triage"

	// JobModulePrefix 岗位模块
	JobModulePrefix = "job"

	// EntityKeywords 关键词实体
	EntityKeywords = "keywords"

	// KeyJobDescriptionKeywords JD 关键词缓存 (STRING, JSON 数组)
	// 格式: triage:job:keywords:{jdMD5}
	KeyJobDescriptionKeywords = AppPrefix + ":" + JobModulePrefix + ":" + EntityKeywords + ":%s"
)
