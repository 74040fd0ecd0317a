package executor

// query function names
const (
	FuncNameQueryGameByID             = "QueryGameByID"
	FuncNameQueryGameByIDs            = "QueryGameByIDs"
	FuncNameQueryGameListByStatusAddr = "QueryGameListByStatusAndAddr"
	FuncNameQueryGameListCount        = "QueryGameListCount"
	FuncNameQueryPlayerInfo           = "QueryPlayerInfo"
)
