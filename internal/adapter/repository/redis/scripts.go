package redis

import (
	_ "embed"

	"github.com/redis/go-redis/v9"
)

//go:embed lua/session_add.lua
var luaSessionAdd string

//go:embed lua/session_revoke_all.lua
var luaSessionRevokeAll string

//go:embed lua/idempotency_claim.lua
var luaIdempotencyClaim string

var (
	scriptSessionAdd       = redis.NewScript(luaSessionAdd)
	scriptSessionRevokeAll = redis.NewScript(luaSessionRevokeAll)
	scriptIdempotencyClaim = redis.NewScript(luaIdempotencyClaim)
)
