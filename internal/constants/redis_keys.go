package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// MatchModulePrefix 匹配模块
	MatchModulePrefix = "match"
	// JobModulePrefix 岗位模块
	JobModulePrefix = "job"
	// CVModulePrefix 简历模块
	CVModulePrefix = "cv"

	// EntityRecommend 推荐结果实体
	EntityRecommend = "recommend"
	// EntityLock 分布式锁实体
	EntityLock = "lock"
	// EntityText 文本实体
	EntityText = "text"

	// KeyRecommendedJobs 用户推荐岗位列表缓存 (STRING, JSON)
	// 格式: app:match:recommend:{userID}
	KeyRecommendedJobs = AppPrefix + ":" + MatchModulePrefix + ":" + EntityRecommend + ":%s"

	// KeyPrimaryCVLock 主简历切换分布式锁 (STRING)
	// 格式: app:cv:lock:{userID}
	KeyPrimaryCVLock = AppPrefix + ":" + CVModulePrefix + ":" + EntityLock + ":%s"

	// KeyJobDescriptionText JD文本缓存 (STRING)
	// 格式: app:job:text:{jobID}
	KeyJobDescriptionText = AppPrefix + ":" + JobModulePrefix + ":" + EntityText + ":%s"
)
