package etw

// Microsoft-Windows-Kernel-Process manifest events.

func kernelProcessEvent(id uint16, version uint8, name, opcodeName string, opcode uint8, keyword uint64, props ...PropertyDef) *EventSchema {
	return &EventSchema{
		Name:       name,
		Provider:   "Microsoft-Windows-Kernel-Process",
		GUID:       *KernelProcessGuid,
		Id:         id,
		Version:    version,
		Opcode:     opcode,
		OpcodeName: opcodeName,
		Level:      4,
		Task:       id,
		TaskName:   name,
		Keyword:    keyword | 0x8000000000000000,

		Properties: props,
	}
}

var (
	KernelProcessStart = kernelProcessEvent(1, 3, "ProcessStart", "Start", 1, WINEVENT_KEYWORD_PROCESS,
		propOut("ProcessID", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		prop("CreateTime", TDH_INTYPE_FILETIME),
		propOut("ParentProcessID", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		prop("SessionID", TDH_INTYPE_UINT32),
		propOut("Flags", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("ImageName", TDH_INTYPE_UNICODESTRING),
		propOut("ImageChecksum", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("TimeDateStamp", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("PackageFullName", TDH_INTYPE_UNICODESTRING),
		prop("PackageRelativeAppId", TDH_INTYPE_UNICODESTRING),
	)

	KernelProcessStop = kernelProcessEvent(2, 2, "ProcessStop", "Stop", 2, WINEVENT_KEYWORD_PROCESS,
		propOut("ProcessID", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		prop("CreateTime", TDH_INTYPE_FILETIME),
		prop("ExitTime", TDH_INTYPE_FILETIME),
		propOut("ExitCode", TDH_INTYPE_UINT32, TDH_OUTTYPE_NTSTATUS),
		prop("TokenElevationType", TDH_INTYPE_UINT32),
		prop("HandleCount", TDH_INTYPE_UINT32),
		prop("CommitCharge", TDH_INTYPE_UINT64),
		prop("CommitPeak", TDH_INTYPE_UINT64),
		prop("CPUCycleCount", TDH_INTYPE_UINT64),
		prop("ReadOperationCount", TDH_INTYPE_UINT32),
		prop("WriteOperationCount", TDH_INTYPE_UINT32),
		prop("ReadTransferKiloBytes", TDH_INTYPE_UINT32),
		prop("WriteTransferKiloBytes", TDH_INTYPE_UINT32),
		prop("HardFaultCount", TDH_INTYPE_UINT32),
		prop("ImageName", TDH_INTYPE_ANSISTRING),
	)

	KernelThreadStart = kernelProcessEvent(3, 1, "ThreadStart", "Start", 1, WINEVENT_KEYWORD_THREAD,
		propOut("ProcessID", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		propOut("ThreadID", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("StackBase", TDH_INTYPE_POINTER),
		prop("StackLimit", TDH_INTYPE_POINTER),
		prop("UserStackBase", TDH_INTYPE_POINTER),
		prop("UserStackLimit", TDH_INTYPE_POINTER),
		prop("StartAddr", TDH_INTYPE_POINTER),
		prop("Win32StartAddr", TDH_INTYPE_POINTER),
		prop("TebBase", TDH_INTYPE_POINTER),
		propOut("SubProcessTag", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
	)

	KernelThreadStop = kernelProcessEvent(4, 1, "ThreadStop", "Stop", 2, WINEVENT_KEYWORD_THREAD,
		propOut("ProcessID", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		propOut("ThreadID", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("StackBase", TDH_INTYPE_POINTER),
		prop("StackLimit", TDH_INTYPE_POINTER),
		prop("UserStackBase", TDH_INTYPE_POINTER),
		prop("UserStackLimit", TDH_INTYPE_POINTER),
		prop("StartAddr", TDH_INTYPE_POINTER),
		prop("Win32StartAddr", TDH_INTYPE_POINTER),
		prop("TebBase", TDH_INTYPE_POINTER),
		propOut("SubProcessTag", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("CycleTime", TDH_INTYPE_UINT64),
	)

	KernelImageLoad = kernelProcessEvent(5, 0, "ImageLoad", "Info", 0, WINEVENT_KEYWORD_IMAGE,
		prop("ImageBase", TDH_INTYPE_POINTER),
		propOut("ImageSize", TDH_INTYPE_POINTER, TDH_OUTTYPE_HEXINT64),
		propOut("ProcessID", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		propOut("ImageCheckSum", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("TimeDateStamp", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("DefaultBase", TDH_INTYPE_POINTER),
		prop("ImageName", TDH_INTYPE_UNICODESTRING),
	)
)

var KernelProcessSchemas = []*EventSchema{
	KernelProcessStart,
	KernelProcessStop,
	KernelThreadStart,
	KernelThreadStop,
	KernelImageLoad,
}

func init() {
	DefaultRegistry.MustRegister(KernelProcessSchemas...)
}
