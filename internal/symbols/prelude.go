package symbols

// Prelude returns an index pre-seeded with the native types and runtime
// functions every MML module can reference. Representations follow the
// embedded C runtime: String is { length, data }, buffers and builders are
// opaque pointers.
func Prelude() *Index {
	ix := NewIndex()
	for _, def := range preludeDefs() {
		// Prelude names are fixed and unique; Add cannot fail here.
		if _, err := ix.Add(def); err != nil {
			panic("prelude: " + err.Error())
		}
	}
	return ix
}

func preludeDefs() []Def {
	native := func(name, repr string, ptr bool) Def {
		return Def{Kind: DefNative, Name: name, Native: NativeDef{Repr: repr, Pointer: ptr}}
	}
	extern := func(name string, params []string, result string) Def {
		return Def{Kind: DefFunc, Name: name, Func: FuncDef{Params: params, Result: result, External: true}}
	}
	return []Def{
		native("Unit", "void", false),
		native("Bool", "i1", false),
		native("Char", "i8", false),
		native("Int16", "i16", false),
		native("Int32", "i32", false),
		native("Int", "i64", false),
		native("Float", "double", false),
		native("CharPtr", "i8", true),
		native("IntPtr", "i64", true),
		native("StringPtr", "i8", true),
		native("Buffer", "i8", true),
		native("StringBuilder", "i8", true),

		{Kind: DefStruct, Name: "String", Struct: StructDef{
			Native: true,
			Fields: []Field{
				{Name: "length", Type: "Int"},
				{Name: "data", Type: "CharPtr"},
			},
		}},
		{Kind: DefStruct, Name: "IntArray", Struct: StructDef{
			Native: true,
			Fields: []Field{
				{Name: "length", Type: "Int"},
				{Name: "data", Type: "IntPtr"},
			},
		}},
		// Element storage is opaque at the IR level; the runtime owns the
		// layout behind the pointer.
		{Kind: DefStruct, Name: "StringArray", Struct: StructDef{
			Native: true,
			Fields: []Field{
				{Name: "length", Type: "Int"},
				{Name: "data", Type: "StringPtr"},
			},
		}},

		extern("print", []string{"String"}, "Unit"),
		extern("println", []string{"String"}, "Unit"),
		extern("readline", nil, "String"),
		extern("concat", []string{"String", "String"}, "String"),
		extern("substring", []string{"String", "Int", "Int"}, "String"),
		extern("to_string", []string{"Int"}, "String"),
		extern("str_to_int", []string{"String"}, "Int"),
		extern("mkBuffer", nil, "Buffer"),
		extern("buffer_write", []string{"Buffer", "String"}, "Unit"),
		extern("buffer_writeln", []string{"Buffer", "String"}, "Unit"),
		extern("buffer_write_int", []string{"Buffer", "Int"}, "Unit"),
		extern("flush", []string{"Buffer"}, "Unit"),
		extern("ar_int_new", []string{"Int"}, "IntArray"),
		extern("ar_int_set", []string{"IntArray", "Int", "Int"}, "Unit"),
		extern("ar_int_get", []string{"IntArray", "Int"}, "Int"),
		extern("ar_int_len", []string{"IntArray"}, "Int"),
		extern("ar_str_new", []string{"Int"}, "StringArray"),
		extern("ar_str_set", []string{"StringArray", "Int", "String"}, "Unit"),
		extern("ar_str_get", []string{"StringArray", "Int"}, "String"),
		extern("ar_str_len", []string{"StringArray"}, "Int"),
		extern("string_builder_new", []string{"Int"}, "StringBuilder"),
		extern("string_builder_append", []string{"StringBuilder", "String"}, "Unit"),
		extern("string_builder_finalize", []string{"StringBuilder"}, "String"),
		extern("__clone_String", []string{"String"}, "String"),
		extern("__free_String", []string{"String"}, "Unit"),
	}
}
