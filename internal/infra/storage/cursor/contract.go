package cursor

import "github.com/m04kA/SMC-MaxGateway/pkg/txmanager"

type DBExecutor = txmanager.DBExecutor
